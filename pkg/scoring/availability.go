package scoring

import (
	"github.com/capiscio/cardscore/pkg/probe"
)

// Category maxima for the availability dimension.
const (
	maxPrimaryEndpoint  = 50.0
	maxTransportSupport = 30.0
	maxResponseQuality  = 20.0
)

func scoreAvailability(probes []probe.LiveProbeResult, tested bool) AvailabilityBreakdown {
	b := AvailabilityBreakdown{Tested: tested}
	if !tested {
		// Not requested: an idempotent no-op regardless of other inputs.
		b.PrimaryEndpoint = CategoryScore{Max: maxPrimaryEndpoint}
		b.TransportSupport = CategoryScore{Max: maxTransportSupport}
		b.ResponseQuality = CategoryScore{Max: maxResponseQuality}
		return b
	}

	var primary *probe.LiveProbeResult
	var alternates []probe.LiveProbeResult
	for i := range probes {
		if probes[i].Primary && primary == nil {
			primary = &probes[i]
		} else {
			alternates = append(alternates, probes[i])
		}
	}

	b.PrimaryEndpoint = scorePrimaryEndpoint(primary, &b.Issues)
	b.TransportSupport = scoreTransportSupport(primary, alternates, &b.Issues)
	b.ResponseQuality = scoreResponseQuality(primary, &b.Issues)

	total := round2(clamp(b.PrimaryEndpoint.Score+b.TransportSupport.Score+b.ResponseQuality.Score, 0, 100))
	b.Total = &total
	b.Rating = rating(total)
	return b
}

func scorePrimaryEndpoint(primary *probe.LiveProbeResult, issues *[]string) CategoryScore {
	details := map[string]bool{
		"responds":     false,
		"fastResponse": false,
		"corsHeaders":  false,
		"validTls":     false,
	}
	if primary == nil {
		*issues = append(*issues, "no primary endpoint probe result")
		return CategoryScore{Score: 0, Max: maxPrimaryEndpoint, Details: details}
	}

	score := 0.0
	if primary.Details.Reachable {
		details["responds"] = true
		score += 30
	} else {
		*issues = append(*issues, "primary endpoint did not respond")
	}

	switch {
	case primary.Details.Reachable && primary.ResponseTimeMS < 3000:
		details["fastResponse"] = true
		score += 10
	case primary.Details.Reachable && primary.ResponseTimeMS <= 10000:
		score += 5
		*issues = append(*issues, "primary endpoint is slow (3-10s)")
	}

	if primary.Details.CORSHeaders {
		details["corsHeaders"] = true
		score += 5
	}
	if primary.Details.TLSValid {
		details["validTls"] = true
		score += 5
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxPrimaryEndpoint)), Max: maxPrimaryEndpoint, Details: details}
}

func scoreTransportSupport(primary *probe.LiveProbeResult, alternates []probe.LiveProbeResult, issues *[]string) CategoryScore {
	details := map[string]bool{
		"preferredTransport":  false,
		"alternateInterfaces": false,
	}

	score := 0.0
	if primary != nil && primary.Success {
		details["preferredTransport"] = true
		score += 20
	} else {
		*issues = append(*issues, "preferred transport check failed on the primary endpoint")
	}

	// All-or-nothing: a card declaring no alternates has nothing to break.
	allPass := true
	for _, alt := range alternates {
		if !alt.Success {
			allPass = false
		}
	}
	if allPass {
		details["alternateInterfaces"] = true
		score += 10
	} else {
		*issues = append(*issues, "one or more additional interfaces failed probing")
	}

	return CategoryScore{Score: score, Max: maxTransportSupport, Details: details}
}

func scoreResponseQuality(primary *probe.LiveProbeResult, issues *[]string) CategoryScore {
	details := map[string]bool{
		"validShape":       false,
		"contentType":      false,
		"noProtocolErrors": false,
	}
	if primary == nil {
		return CategoryScore{Score: 0, Max: maxResponseQuality, Details: details}
	}

	score := 0.0
	if primary.Details.ValidShape {
		details["validShape"] = true
		score += 10
	}
	if primary.Details.ContentTypeOK {
		details["contentType"] = true
		score += 5
	}
	if !primary.Details.ProtocolErrors {
		details["noProtocolErrors"] = true
		score += 5
	} else {
		*issues = append(*issues, "primary endpoint returned protocol-invalid responses")
	}

	return CategoryScore{Score: score, Max: maxResponseQuality, Details: details}
}
