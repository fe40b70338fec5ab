package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/runtime"
)

// HTTPJSONProber checks a plain HTTP+JSON endpoint.
type HTTPJSONProber struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

// Probe GETs the endpoint asking for JSON. Servers that only accept POST
// (405) get exactly one POST attempt before the probe concludes.
func (p *HTTPJSONProber) Probe(ctx context.Context, endpoint string) Outcome {
	headers := map[string]string{"Accept": "application/json"}

	resp, cerr := p.client.Get(ctx, endpoint, headers)
	if cerr != nil {
		return Outcome{Errors: []ProbeError{{Code: cerr.Code, Message: cerr.Message}}}
	}

	if resp.Status == http.StatusMethodNotAllowed {
		p.log.Debug("GET not allowed, retrying with POST")
		postHeaders := map[string]string{
			"Accept":       "application/json",
			"Content-Type": "application/json",
		}
		resp, cerr = p.client.Post(ctx, endpoint, postHeaders, []byte("{}"))
		if cerr != nil {
			return Outcome{Errors: []ProbeError{{Code: cerr.Code, Message: cerr.Message}}}
		}
	}

	out := Outcome{ResponseTime: resp.Latency}
	out.ContentTypeOK = strings.HasPrefix(resp.Headers.Get("Content-Type"), "application/json")

	if resp.Status < 200 || resp.Status >= 300 {
		out.Errors = append(out.Errors, ProbeError{
			Code:    CodeHTTPStatus,
			Message: "endpoint returned status " + strconv.Itoa(resp.Status),
		})
		return out
	}

	out.Success = true
	out.RawResponse = resp.Body

	// Shape validation is best-effort here: a kind-tagged body is held to the
	// runtime message rules, anything else just needs to be JSON.
	var decoded any
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		out.ProtocolError = true
		out.Errors = append(out.Errors, ProbeError{
			Code:    CodeProtocolError,
			Message: "endpoint replied with non-JSON body",
		})
		out.Success = false
		return out
	}
	if obj, ok := decoded.(map[string]any); ok {
		if _, tagged := obj["kind"]; tagged {
			shape := runtime.ValidateMessage(obj)
			out.ValidShape = shape.Valid
			if !shape.Valid {
				out.ProtocolError = true
				for _, msg := range shape.Errors {
					out.Errors = append(out.Errors, ProbeError{Code: CodeProtocolError, Message: msg})
				}
				out.Success = false
			}
			return out
		}
	}
	out.ValidShape = true
	return out
}
