// Package probe performs live connectivity and protocol-shape checks against
// the endpoints an Agent Card declares.
package probe

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/agentcard"
)

// Probe-level error codes, alongside the httpclient transport codes.
const (
	CodeUnsupportedTransport = "UNSUPPORTED_TRANSPORT"
	CodeProtocolError        = "PROTOCOL_ERROR"
	CodeEndpointMismatch     = "ENDPOINT_MISMATCH"
	CodeHTTPStatus           = httpclient.CodeHTTPStatus
)

// ProbeError is one classified failure observed during a probe.
type ProbeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Details captures the per-check evidence the availability scorer consumes.
type Details struct {
	Reachable      bool `json:"reachable"`
	HTTPStatus     int  `json:"httpStatus,omitempty"`
	CORSHeaders    bool `json:"corsHeaders"`
	TLSValid       bool `json:"tlsValid"`
	ValidShape     bool `json:"validShape"`
	ContentTypeOK  bool `json:"contentTypeOk"`
	ProtocolErrors bool `json:"protocolErrors"`
}

// LiveProbeResult is the outcome of probing a single declared interface.
type LiveProbeResult struct {
	Endpoint       string                      `json:"endpoint"`
	Transport      agentcard.TransportProtocol `json:"transport"`
	Primary        bool                        `json:"primary"`
	Success        bool                        `json:"success"`
	ResponseTimeMS int64                       `json:"responseTimeMs"`
	Errors         []ProbeError                `json:"errors,omitempty"`
	Warnings       []ProbeError                `json:"warnings,omitempty"`
	RawResponse    json.RawMessage             `json:"rawResponse,omitempty"`
	Details        Details                     `json:"details"`
}

// Outcome is what a transport-specific prober reports back to the runner.
type Outcome struct {
	Success       bool
	ResponseTime  time.Duration
	Errors        []ProbeError
	Warnings      []ProbeError
	RawResponse   []byte
	ValidShape    bool
	ContentTypeOK bool
	ProtocolError bool
}

// Runner probes the primary URL and every additional interface of a card.
type Runner struct {
	client  *httpclient.Client
	timeout time.Duration
	log     logrus.FieldLogger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithTimeout bounds each individual probe. Default: 10s.
func WithTimeout(timeout time.Duration) RunnerOption {
	return func(r *Runner) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithClient replaces the HTTP client used for all probes.
func WithClient(client *httpclient.Client) RunnerOption {
	return func(r *Runner) {
		r.client = client
	}
}

// WithLogger sets the probe logger.
func WithLogger(log logrus.FieldLogger) RunnerOption {
	return func(r *Runner) {
		if log != nil {
			r.log = log
		}
	}
}

// NewRunner creates a probe Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		timeout: 10 * time.Second,
		log:     httpclient.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.client == nil {
		r.client = httpclient.New(httpclient.WithTimeout(r.timeout), httpclient.WithLogger(r.log))
	}
	return r
}

// ProbeCard probes the primary interface and each additional interface.
// Probes run concurrently, each under its own timeout, but results are
// ordered by interface declaration order so output stays deterministic.
func (r *Runner) ProbeCard(ctx context.Context, card *agentcard.AgentCard) []LiveProbeResult {
	bindings := card.InterfaceBindings()
	results := make([]LiveProbeResult, len(bindings))

	var wg sync.WaitGroup
	for i, binding := range bindings {
		wg.Add(1)
		go func(idx int, b agentcard.AgentInterface) {
			defer wg.Done()
			probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()
			results[idx] = r.probeInterface(probeCtx, b, idx == 0)
		}(i, binding)
	}
	wg.Wait()

	return results
}

// ProbeInterface probes one (URL, transport) binding.
func (r *Runner) ProbeInterface(ctx context.Context, binding agentcard.AgentInterface, primary bool) LiveProbeResult {
	probeCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.probeInterface(probeCtx, binding, primary)
}

func (r *Runner) probeInterface(ctx context.Context, binding agentcard.AgentInterface, primary bool) LiveProbeResult {
	result := LiveProbeResult{
		Endpoint:  binding.URL,
		Transport: binding.Transport,
		Primary:   primary,
	}

	log := r.log.WithFields(logrus.Fields{
		"endpoint":  binding.URL,
		"transport": binding.Transport,
	})

	// Connectivity first. A failed reachability check is recorded but does not
	// stop the transport-specific check: a server may reject bare GETs while
	// speaking its protocol perfectly well.
	resp, cerr := r.client.Get(ctx, binding.URL, nil)
	if cerr != nil {
		result.Errors = append(result.Errors, ProbeError{Code: cerr.Code, Message: cerr.Message})
		if cerr.Code == httpclient.CodeCancelled || cerr.Code == httpclient.CodeTimeout {
			// The deadline covers the whole probe; no point running the
			// transport check against the same dead clock.
			result.ResponseTimeMS = 0
			return result
		}
	} else {
		result.Details.HTTPStatus = resp.Status
		result.Details.Reachable = resp.Status >= 200 && resp.Status < 400
		result.Details.CORSHeaders = resp.Headers.Get("Access-Control-Allow-Origin") != ""
		// A completed response means the TLS handshake succeeded.
		result.Details.TLSValid = isHTTPSURL(binding.URL)
		result.ResponseTimeMS = resp.Latency.Milliseconds()
		if !result.Details.Reachable {
			// Advisory only: the transport check decides whether the endpoint
			// actually works.
			result.Warnings = append(result.Warnings, ProbeError{
				Code:    CodeHTTPStatus,
				Message: "connectivity check returned status " + strconv.Itoa(resp.Status),
			})
		}
	}

	prober, ok := proberFor(binding.Transport, r.client, log)
	if !ok {
		// Fail closed instead of silently skipping an unknown transport.
		result.Errors = append(result.Errors, ProbeError{
			Code:    CodeUnsupportedTransport,
			Message: "unsupported transport: " + string(binding.Transport),
		})
		return result
	}

	outcome := prober.Probe(ctx, binding.URL)
	result.Errors = append(result.Errors, outcome.Errors...)
	result.Warnings = append(result.Warnings, outcome.Warnings...)
	result.RawResponse = outcome.RawResponse
	result.Details.ValidShape = outcome.ValidShape
	result.Details.ContentTypeOK = outcome.ContentTypeOK
	result.Details.ProtocolErrors = outcome.ProtocolError
	if outcome.ResponseTime > 0 {
		result.ResponseTimeMS = outcome.ResponseTime.Milliseconds()
	}
	if outcome.Success {
		// A protocol-level reply is stronger reachability evidence than the
		// bare GET, which many servers reject outright.
		result.Details.Reachable = true
	}
	result.Success = outcome.Success && len(result.Errors) == 0

	log.WithFields(logrus.Fields{
		"success":   result.Success,
		"latencyMs": result.ResponseTimeMS,
	}).Debug("probe finished")

	return result
}

func isHTTPSURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	return err == nil && u.Scheme == "https"
}
