// Package scoring implements the pure scoring logic for Agent Cards:
// three independent 0-100 dimensions plus a recommendation, computed
// deterministically from validation evidence and never performing I/O.
package scoring

import (
	"math"
	"time"

	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/crypto"
	"github.com/capiscio/cardscore/pkg/probe"
)

// Input bundles the evidence the scorer fuses. Absent evidence zeroes the
// relevant categories; it never causes an error.
type Input struct {
	Card *agentcard.AgentCard

	// Signatures is the verification outcome, including skip reasons. May be
	// nil, which counts the same as an unverified card.
	Signatures *crypto.SignatureVerificationResult

	// Probes holds live probe results in interface declaration order, primary
	// first. Nil when live testing was not requested.
	Probes []probe.LiveProbeResult

	// LiveTested records whether live probing was requested at all.
	LiveTested bool

	// Now anchors recency checks so identical inputs score identically.
	Now time.Time
}

// CategoryScore is one category inside a dimension breakdown.
type CategoryScore struct {
	Score   float64         `json:"score"`
	Max     float64         `json:"max"`
	Details map[string]bool `json:"details,omitempty"`
}

// ComplianceBreakdown scores structural adherence to the A2A specification.
type ComplianceBreakdown struct {
	Total            float64       `json:"total"`
	Rating           string        `json:"rating"`
	RequiredFields   CategoryScore `json:"requiredFields"`
	SkillsQuality    CategoryScore `json:"skillsQuality"`
	FormatCompliance CategoryScore `json:"formatCompliance"`
	DataQuality      CategoryScore `json:"dataQuality"`
	Issues           []string      `json:"issues,omitempty"`
}

// TrustBreakdown scores the card's trustworthiness. Total is always
// RawScore multiplied by the confidence multiplier: identical raw claims
// score differently depending on whether they are cryptographically backed.
type TrustBreakdown struct {
	Total                float64       `json:"total"`
	RawScore             float64       `json:"rawScore"`
	ConfidenceMultiplier float64       `json:"confidenceMultiplier"`
	Rating               string        `json:"rating"`
	Signatures           CategoryScore `json:"signatures"`
	Provider             CategoryScore `json:"provider"`
	Security             CategoryScore `json:"security"`
	Documentation        CategoryScore `json:"documentation"`
	Issues               []string      `json:"issues,omitempty"`
}

// AvailabilityBreakdown scores live endpoint behavior. Total is nil when
// live testing was not requested.
type AvailabilityBreakdown struct {
	Tested           bool          `json:"tested"`
	Total            *float64      `json:"total"`
	Rating           string        `json:"rating,omitempty"`
	PrimaryEndpoint  CategoryScore `json:"primaryEndpoint"`
	TransportSupport CategoryScore `json:"transportSupport"`
	ResponseQuality  CategoryScore `json:"responseQuality"`
	Issues           []string      `json:"issues,omitempty"`
}

// Result is the full scoring outcome.
type Result struct {
	Compliance     ComplianceBreakdown   `json:"compliance"`
	Trust          TrustBreakdown        `json:"trust"`
	Availability   AvailabilityBreakdown `json:"availability"`
	Recommendation []string              `json:"recommendation"`
}

// LegacyScore is the backward-compatible single score: a weighted average
// with the availability weight redistributed to compliance when untested.
func (r *Result) LegacyScore() float64 {
	avail := 0.0
	if r.Availability.Tested && r.Availability.Total != nil {
		avail = *r.Availability.Total
		return round2(r.Compliance.Total*0.5 + r.Trust.Total*0.3 + avail*0.2)
	}
	return round2(r.Compliance.Total*0.7 + r.Trust.Total*0.3)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func rating(total float64) string {
	switch {
	case total >= 90:
		return "excellent"
	case total >= 75:
		return "good"
	case total >= 60:
		return "fair"
	case total >= 40:
		return "poor"
	default:
		return "critical"
	}
}
