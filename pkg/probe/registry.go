package probe

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/agentcard"
)

// Prober performs the transport-specific protocol check for one endpoint.
type Prober interface {
	Probe(ctx context.Context, endpoint string) Outcome
}

// proberFactory builds a prober bound to the runner's client and logger.
type proberFactory func(client *httpclient.Client, log logrus.FieldLogger) Prober

// registry keys probers by transport so unsupported transports fail closed
// with an explicit finding instead of being skipped. Supporting a fourth
// transport is one entry here plus its prober.
var registry = map[agentcard.TransportProtocol]proberFactory{
	agentcard.TransportJSONRPC: func(c *httpclient.Client, log logrus.FieldLogger) Prober {
		return &JSONRPCProber{client: c, log: log}
	},
	agentcard.TransportGRPC: func(c *httpclient.Client, log logrus.FieldLogger) Prober {
		return &GRPCProber{client: c, log: log}
	},
	agentcard.TransportHTTPJSON: func(c *httpclient.Client, log logrus.FieldLogger) Prober {
		return &HTTPJSONProber{client: c, log: log}
	},
}

func proberFor(transport agentcard.TransportProtocol, client *httpclient.Client, log logrus.FieldLogger) (Prober, bool) {
	factory, ok := registry[transport]
	if !ok {
		return nil, false
	}
	return factory(client, log), true
}
