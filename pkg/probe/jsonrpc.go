package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/runtime"
)

// JSONRPCProber checks that an endpoint speaks the A2A JSON-RPC envelope.
type JSONRPCProber struct {
	client *httpclient.Client
	log    logrus.FieldLogger
}

type jsonRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      string      `json:"id"`
}

type jsonRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonRPCError   `json:"error,omitempty"`
	ID      interface{}     `json:"id"`
}

type jsonRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Probe POSTs a minimal message/send envelope. A reply carrying either a
// result or an error member proves an RPC server is present; so does a
// route-not-found status, since many agents only mount their RPC path.
func (p *JSONRPCProber) Probe(ctx context.Context, endpoint string) Outcome {
	msgID := uuid.NewString()
	req := jsonRPCRequest{
		JSONRPC: "2.0",
		Method:  "message/send",
		Params: map[string]any{
			"message": map[string]any{
				"kind":      "message",
				"messageId": msgID,
				"role":      "user",
				"parts": []map[string]any{
					{"kind": "text", "text": "validation ping"},
				},
			},
		},
		ID: uuid.NewString(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{Errors: []ProbeError{{Code: CodeProtocolError, Message: "failed to marshal rpc request: " + err.Error()}}}
	}

	resp, cerr := p.client.Post(ctx, endpoint, map[string]string{"Content-Type": "application/json"}, body)
	if cerr != nil {
		return Outcome{Errors: []ProbeError{{Code: cerr.Code, Message: cerr.Message}}}
	}

	out := Outcome{ResponseTime: resp.Latency}
	out.ContentTypeOK = strings.HasPrefix(resp.Headers.Get("Content-Type"), "application/json")

	if resp.Status == http.StatusNotFound || resp.Status == http.StatusMethodNotAllowed {
		// The server exists and routes requests; the RPC path just is not the
		// card URL verbatim.
		out.Success = true
		out.Warnings = append(out.Warnings, ProbeError{
			Code:    CodeEndpointMismatch,
			Message: "endpoint returned status " + strconv.Itoa(resp.Status) + " for the RPC envelope",
		})
		return out
	}

	var rpcResp jsonRPCResponse
	if err := json.Unmarshal(resp.Body, &rpcResp); err != nil {
		out.ProtocolError = true
		out.Errors = append(out.Errors, ProbeError{
			Code:    CodeProtocolError,
			Message: "reply is not a JSON-RPC envelope: " + err.Error(),
		})
		return out
	}

	if rpcResp.Result == nil && rpcResp.Error == nil {
		out.ProtocolError = true
		out.Errors = append(out.Errors, ProbeError{
			Code:    CodeProtocolError,
			Message: "JSON-RPC reply carries neither result nor error",
		})
		return out
	}

	out.Success = true
	out.RawResponse = resp.Body

	// An error reply still proves a live RPC server; only a result payload is
	// held to the runtime message shape rules.
	if rpcResp.Result != nil {
		shape := runtime.ValidateMessageBytes(rpcResp.Result)
		out.ValidShape = shape.Valid
		if !shape.Valid {
			out.ProtocolError = true
			for _, msg := range shape.Errors {
				out.Errors = append(out.Errors, ProbeError{Code: CodeProtocolError, Message: msg})
			}
			out.Success = false
		}
	}

	return out
}
