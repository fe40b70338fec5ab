// Package report defines the structures for validation and scoring reports.
package report

import (
	"github.com/capiscio/cardscore/pkg/compat"
	"github.com/capiscio/cardscore/pkg/crypto"
	"github.com/capiscio/cardscore/pkg/probe"
	"github.com/capiscio/cardscore/pkg/scoring"
)

// ValidationResult contains the complete results of an Agent Card validation.
// It is constructed fresh per invocation and treated as immutable once returned.
type ValidationResult struct {
	Success       bool                                `json:"success"`
	Score         float64                             `json:"score"`
	Errors        []Issue                             `json:"errors"`
	Warnings      []Issue                             `json:"warnings"`
	Suggestions   []Suggestion                        `json:"suggestions"`
	VersionInfo   VersionInfo                         `json:"versionInfo"`
	ScoringResult *scoring.Result                     `json:"scoringResult"`
	Signatures    *crypto.SignatureVerificationResult `json:"signatures,omitempty"`
	LiveTest      []probe.LiveProbeResult             `json:"liveTest,omitempty"`
}

// Issue represents a specific problem found during validation.
type Issue struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
	Severity string `json:"severity"` // "error" or "warning"
	Fixable  bool   `json:"fixable,omitempty"`
}

// Suggestion is a non-blocking improvement hint.
type Suggestion struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Severity string `json:"severity"` // always "info"
	Impact   string `json:"impact,omitempty"`
}

// VersionInfo reports the protocol version analysis outcome.
type VersionInfo struct {
	DetectedVersion string               `json:"detectedVersion"`
	Strictness      string               `json:"strictness"`
	Compatibility   CompatibilitySummary `json:"compatibility"`
}

// CompatibilitySummary summarizes version/feature compatibility.
type CompatibilitySummary struct {
	Compatible bool                     `json:"compatible"`
	Mismatches []compat.VersionMismatch `json:"mismatches"`
}

// AddError appends an error issue and marks the result unsuccessful.
func (r *ValidationResult) AddError(code, message, field string) {
	r.Errors = append(r.Errors, Issue{
		Code:     code,
		Message:  message,
		Field:    field,
		Severity: "error",
	})
	r.Success = false
}

// AddWarning appends a warning issue. Warnings never flip Success on their own.
func (r *ValidationResult) AddWarning(code, message, field string) {
	r.Warnings = append(r.Warnings, Issue{
		Code:     code,
		Message:  message,
		Field:    field,
		Severity: "warning",
	})
}

// AddSuggestion appends an info-level suggestion.
func (r *ValidationResult) AddSuggestion(id, message, impact string) {
	r.Suggestions = append(r.Suggestions, Suggestion{
		ID:       id,
		Message:  message,
		Severity: "info",
		Impact:   impact,
	})
}
