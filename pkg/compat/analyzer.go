// Package compat analyzes an Agent Card's declared protocol version against
// the capabilities it actually uses.
package compat

import (
	"fmt"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

// KnownProtocolVersions lists the released A2A protocol versions, oldest first.
var KnownProtocolVersions = []string{
	"0.1.0",
	"0.2.0",
	"0.2.1",
	"0.2.2",
	"0.2.3",
	"0.2.5",
	"0.2.6",
	"0.3.0",
}

// IsKnownProtocolVersion reports whether v is a released protocol version.
func IsKnownProtocolVersion(v string) bool {
	for _, known := range KnownProtocolVersions {
		if v == known {
			return true
		}
	}
	return false
}

// LatestProtocolVersion returns the newest released protocol version.
func LatestProtocolVersion() string {
	return KnownProtocolVersions[len(KnownProtocolVersions)-1]
}

// VersionMismatch records a capability used by the card that requires a newer
// protocol version than the card declares.
type VersionMismatch struct {
	Feature         string `json:"feature"`
	RequiredVersion string `json:"requiredVersion"`
	DetectedVersion string `json:"detectedVersion"`
	Severity        string `json:"severity"` // "warning"; escalation is the orchestrator's job
	Description     string `json:"description"`
}

// Result is the outcome of a compatibility analysis.
type Result struct {
	DetectedVersion string            `json:"detectedVersion"`
	Compatible      bool              `json:"compatible"`
	Mismatches      []VersionMismatch `json:"mismatches"`
	Suggestions     []string          `json:"suggestions"`
}

type featureGate struct {
	feature    string
	minVersion string
	used       func(*agentcard.AgentCard) bool
}

// featureGates maps each optional capability to the protocol version that
// introduced it. Order is fixed so mismatch output is deterministic.
var featureGates = []featureGate{
	{"streaming", "0.2.0", func(c *agentcard.AgentCard) bool {
		return c.Capabilities != nil && c.Capabilities.Streaming
	}},
	{"pushNotifications", "0.2.0", func(c *agentcard.AgentCard) bool {
		return c.Capabilities != nil && c.Capabilities.PushNotifications
	}},
	{"stateTransitionHistory", "0.2.1", func(c *agentcard.AgentCard) bool {
		return c.Capabilities != nil && c.Capabilities.StateTransitionHistory
	}},
	{"supportsAuthenticatedExtendedCard", "0.2.5", func(c *agentcard.AgentCard) bool {
		return c.SupportsAuthenticatedExtendedCard
	}},
	{"additionalInterfaces", "0.3.0", func(c *agentcard.AgentCard) bool {
		return len(c.AdditionalInterfaces) > 0
	}},
	{"signatures", "0.3.0", func(c *agentcard.AgentCard) bool {
		return len(c.Signatures) > 0
	}},
	{"extensions", "0.3.0", func(c *agentcard.AgentCard) bool {
		return len(c.Extensions) > 0
	}},
}

// Analyzer compares declared protocol versions against used capabilities.
// It is stateless and performs no I/O.
type Analyzer struct{}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze inspects the card and reports every capability gated behind a newer
// protocol version than the one declared. A card without a protocolVersion is
// reported with detected version "undefined".
func (a *Analyzer) Analyze(card *agentcard.AgentCard) *Result {
	detected := card.ProtocolVersion
	if detected == "" {
		detected = "undefined"
	}

	res := &Result{
		DetectedVersion: detected,
		Compatible:      true,
	}

	var highestRequired string
	for _, gate := range featureGates {
		if !gate.used(card) {
			continue
		}

		var mismatch bool
		if card.ProtocolVersion == "" {
			mismatch = true
		} else if CompareVersions(card.ProtocolVersion, gate.minVersion) < 0 {
			mismatch = true
		}
		if !mismatch {
			continue
		}

		res.Compatible = false
		res.Mismatches = append(res.Mismatches, VersionMismatch{
			Feature:         gate.feature,
			RequiredVersion: gate.minVersion,
			DetectedVersion: detected,
			Severity:        "warning",
			Description: fmt.Sprintf("capability %q requires protocol version %s or newer (declared: %s)",
				gate.feature, gate.minVersion, detected),
		})
		if highestRequired == "" || CompareVersions(gate.minVersion, highestRequired) > 0 {
			highestRequired = gate.minVersion
		}
	}

	if highestRequired != "" {
		res.Suggestions = append(res.Suggestions,
			fmt.Sprintf("raise protocolVersion to %s to cover all declared capabilities", highestRequired))
	}

	return res
}
