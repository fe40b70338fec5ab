package probe

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
)

// GRPCProber checks for a gRPC endpoint using HTTP content-type heuristics.
// Full gRPC wire framing is out of scope: a server that rejects the probe
// with a content-type complaint, or replies in a gRPC content type, is
// treated as present.
type GRPCProber struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

// Probe POSTs an empty request with a gRPC content type and inspects the reply.
func (p *GRPCProber) Probe(ctx context.Context, endpoint string) Outcome {
	headers := map[string]string{
		"Content-Type": "application/grpc",
		"TE":           "trailers",
	}

	resp, cerr := p.client.Post(ctx, endpoint, headers, []byte{})
	if cerr != nil {
		return Outcome{Errors: []ProbeError{{Code: cerr.Code, Message: cerr.Message}}}
	}

	out := Outcome{ResponseTime: resp.Latency}
	replyType := resp.Headers.Get("Content-Type")
	out.ContentTypeOK = strings.HasPrefix(replyType, "application/grpc")

	switch {
	case strings.HasPrefix(replyType, "application/grpc"):
		out.Success = true
		out.ValidShape = true
	case resp.Status == http.StatusUnsupportedMediaType || resp.Status == http.StatusBadRequest:
		// A server that complains about the media type at least parsed the
		// request as a protocol it does not serve on this path.
		out.Success = true
	case resp.Status == http.StatusNotFound || resp.Status == http.StatusMethodNotAllowed:
		out.Success = true
		out.Warnings = append(out.Warnings, ProbeError{
			Code:    CodeEndpointMismatch,
			Message: "endpoint returned status " + strconv.Itoa(resp.Status) + " for the gRPC probe",
		})
	default:
		out.Errors = append(out.Errors, ProbeError{
			Code:    CodeProtocolError,
			Message: "no evidence of a gRPC server (status " + strconv.Itoa(resp.Status) + ", content-type " + replyType + ")",
		})
		out.ProtocolError = true
	}

	return out
}
