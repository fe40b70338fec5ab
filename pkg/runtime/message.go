// Package runtime validates the shape of messages returned by live A2A
// endpoints: Task, TaskStatusUpdateEvent, TaskArtifactUpdateEvent, and Message
// payloads discriminated by their "kind" field.
package runtime

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Message kinds defined by the A2A protocol.
const (
	KindTask           = "task"
	KindStatusUpdate   = "status-update"
	KindArtifactUpdate = "artifact-update"
	KindMessage        = "message"
)

// Result is the outcome of validating one runtime message.
type Result struct {
	Valid  bool     `json:"valid"`
	Kind   string   `json:"kind,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// kindValidators maps each message kind to its shape check. Adding a new kind
// is one entry here plus its check function.
var kindValidators = map[string]func(map[string]any) []string{
	KindTask:           validateTask,
	KindStatusUpdate:   validateStatusUpdate,
	KindArtifactUpdate: validateArtifactUpdate,
	KindMessage:        validateMessage,
}

// ValidateMessage checks the shape of a decoded runtime message. A missing,
// wrong-typed, or unrecognized kind is reported as its own error; the
// validator never guesses a variant.
func ValidateMessage(raw any) Result {
	obj, ok := raw.(map[string]any)
	if !ok {
		return Result{Errors: []string{"message is not a JSON object"}}
	}

	kindRaw, present := obj["kind"]
	if !present {
		return Result{Errors: []string{"missing required field: kind"}}
	}
	kindStr, ok := kindRaw.(string)
	if !ok {
		return Result{Errors: []string{"field kind must be a string"}}
	}

	kind := strings.ToLower(kindStr)
	validate, known := kindValidators[kind]
	if !known {
		return Result{Kind: kind, Errors: []string{fmt.Sprintf("unrecognized message kind: %q", kindStr)}}
	}

	errs := validate(obj)
	return Result{Valid: len(errs) == 0, Kind: kind, Errors: errs}
}

// ValidateMessageBytes decodes raw JSON and validates the resulting message.
func ValidateMessageBytes(data []byte) Result {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Result{Errors: []string{"invalid JSON: " + err.Error()}}
	}
	return ValidateMessage(raw)
}

func validateTask(obj map[string]any) []string {
	var errs []string
	if s, ok := obj["id"].(string); !ok || s == "" {
		errs = append(errs, "task requires a string id")
	}
	errs = append(errs, requireStatusState(obj, "task")...)
	return errs
}

func validateStatusUpdate(obj map[string]any) []string {
	return requireStatusState(obj, "status-update")
}

func validateArtifactUpdate(obj map[string]any) []string {
	artifact, ok := obj["artifact"].(map[string]any)
	if !ok {
		return []string{"artifact-update requires an artifact object"}
	}
	parts, ok := artifact["parts"].([]any)
	if !ok || len(parts) == 0 {
		return []string{"artifact-update requires artifact.parts to be a non-empty array"}
	}
	return nil
}

func validateMessage(obj map[string]any) []string {
	var errs []string
	parts, ok := obj["parts"].([]any)
	if !ok || len(parts) == 0 {
		errs = append(errs, "message requires parts to be a non-empty array")
	}
	// An endpoint echoing the caller's role is not actually answering as an
	// agent, so any role other than "agent" fails.
	if role, ok := obj["role"].(string); !ok || role != "agent" {
		errs = append(errs, `message role must be "agent"`)
	}
	return errs
}

func requireStatusState(obj map[string]any, kind string) []string {
	status, ok := obj["status"].(map[string]any)
	if !ok {
		return []string{kind + " requires a status object"}
	}
	if s, ok := status["state"].(string); !ok || s == "" {
		return []string{kind + " requires status.state to be a string"}
	}
	return nil
}
