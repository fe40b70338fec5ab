package scoring

// Production-readiness thresholds.
const (
	readyComplianceMin   = 95.0
	readyTrustMin        = 60.0
	readyConfidenceMin   = 0.6
	readyAvailabilityMin = 80.0
)

// recommend derives the ordered recommendation strings purely from score
// thresholds. No free text is generated, so identical scores always yield
// identical recommendations.
func recommend(r *Result) []string {
	var recs []string

	c := r.Compliance.Total
	switch {
	case c >= readyComplianceMin:
		recs = append(recs, "Compliance meets the bar for registry submission.")
	case c >= 85:
		recs = append(recs, "Compliance is solid; address the remaining schema findings.")
	case c >= 70:
		recs = append(recs, "Compliance needs work; fix schema errors before publishing.")
	default:
		recs = append(recs, "Compliance is failing; the card does not satisfy the A2A schema.")
	}

	switch r.Trust.ConfidenceMultiplier {
	case ConfidenceVerified:
		recs = append(recs, "Trust claims are cryptographically verified.")
	case ConfidenceFailed:
		recs = append(recs, "Signature verification failed; treat all trust claims as suspect.")
	default:
		recs = append(recs, "Trust claims are unverified; sign the card to raise confidence.")
	}
	if r.Trust.Total < readyTrustMin {
		recs = append(recs, "Trust score is below the recommended minimum; declare a provider, security schemes, and policy URLs.")
	}

	if r.Availability.Tested && r.Availability.Total != nil {
		a := *r.Availability.Total
		switch {
		case a >= readyAvailabilityMin:
			recs = append(recs, "Availability is production ready.")
		case a >= 50:
			recs = append(recs, "Availability is degraded; investigate slow or failing interfaces.")
		default:
			recs = append(recs, "Availability is poor; the primary endpoint is unreachable or misbehaving.")
		}
	}

	if productionReady(r) {
		recs = append(recs, "READY: the agent card meets production readiness thresholds.")
	} else {
		recs = append(recs, "NOT READY: the agent card does not meet production readiness thresholds.")
	}

	return recs
}

func productionReady(r *Result) bool {
	if r.Compliance.Total < readyComplianceMin {
		return false
	}
	if r.Trust.Total < readyTrustMin || r.Trust.ConfidenceMultiplier < readyConfidenceMin {
		return false
	}
	if r.Availability.Tested {
		if r.Availability.Total == nil || *r.Availability.Total < readyAvailabilityMin {
			return false
		}
	}
	return true
}
