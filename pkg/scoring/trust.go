package scoring

import (
	"strings"
	"time"

	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/crypto"
)

// Category maxima for the trust dimension.
const (
	maxSignatures    = 40.0
	maxProvider      = 25.0
	maxSecurity      = 20.0
	maxDocumentation = 15.0

	// signatureRecencyWindow is how fresh a signing timestamp must be to
	// earn the recency points.
	signatureRecencyWindow = 90 * 24 * time.Hour
)

// Confidence multipliers. An invalid signature is worse than none: a card
// caught lying is penalized harder than one making no claim.
const (
	ConfidenceVerified   = 1.0
	ConfidenceUnverified = 0.6
	ConfidenceFailed     = 0.4
)

func scoreTrust(card *agentcard.AgentCard, sigs *crypto.SignatureVerificationResult, now time.Time, issues *[]string) TrustBreakdown {
	b := TrustBreakdown{}
	if card == nil {
		card = &agentcard.AgentCard{}
	}

	b.Signatures = scoreSignatures(sigs, now, &b.Issues)
	b.Provider = scoreProvider(card, &b.Issues)
	b.Security = scoreSecurity(card, &b.Issues)
	b.Documentation = scoreDocumentation(card, &b.Issues)

	b.RawScore = round2(clamp(b.Signatures.Score+b.Provider.Score+b.Security.Score+b.Documentation.Score, 0, 100))
	b.ConfidenceMultiplier = confidenceMultiplier(sigs)
	b.Total = round2(b.RawScore * b.ConfidenceMultiplier)
	b.Rating = rating(b.Total)

	if issues != nil {
		*issues = append(*issues, b.Issues...)
	}
	return b
}

// confidenceMultiplier implements the truth table: 1.0 iff at least one
// signature verified, 0.4 iff at least one failed verification (even when
// others are valid), 0.6 otherwise (unsigned or verification skipped).
func confidenceMultiplier(sigs *crypto.SignatureVerificationResult) float64 {
	if sigs == nil || sigs.Skipped != crypto.SkipNone {
		return ConfidenceUnverified
	}
	if sigs.Summary.Failed > 0 {
		return ConfidenceFailed
	}
	if sigs.Summary.Valid > 0 {
		return ConfidenceVerified
	}
	return ConfidenceUnverified
}

func scoreSignatures(sigs *crypto.SignatureVerificationResult, now time.Time, issues *[]string) CategoryScore {
	details := map[string]bool{
		"anyValid":     false,
		"multiple":     false,
		"fullCoverage": false,
		"recent":       false,
		"anyInvalid":   false,
	}

	if sigs == nil || sigs.Skipped == crypto.SkipNoSignatures || sigs.Summary.Total == 0 {
		if sigs == nil || sigs.Skipped == crypto.SkipNoSignatures {
			*issues = append(*issues, "agent card is unsigned")
		}
		return CategoryScore{Score: 0, Max: maxSignatures, Details: details}
	}
	if sigs.Skipped == crypto.SkipDisabled {
		*issues = append(*issues, "signature verification was explicitly skipped")
		return CategoryScore{Score: 0, Max: maxSignatures, Details: details}
	}

	score := 0.0
	if sigs.Summary.Valid > 0 {
		details["anyValid"] = true
		score += 30
	}
	if sigs.Summary.Total > 1 {
		details["multiple"] = true
		score += 3
	}
	if sigs.Summary.Valid == sigs.Summary.Total {
		details["fullCoverage"] = true
		score += 4
	}
	for _, sig := range sigs.Signatures {
		if sig.Valid && !sig.SignedAt.IsZero() && now.Sub(sig.SignedAt) <= signatureRecencyWindow {
			details["recent"] = true
			score += 3
			break
		}
	}
	if sigs.Summary.Failed > 0 {
		details["anyInvalid"] = true
		score -= 15
		*issues = append(*issues, "one or more signatures failed verification")
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxSignatures)), Max: maxSignatures, Details: details}
}

func scoreProvider(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	details := map[string]bool{
		"organization": false,
		"url":          false,
	}
	score := 0.0
	if card.Provider != nil && card.Provider.Organization != "" {
		details["organization"] = true
		score += 15
	}
	if card.Provider != nil && card.Provider.URL != "" && hostnameOf(card.Provider.URL) != "" {
		details["url"] = true
		score += 10
	}
	if score == 0 {
		*issues = append(*issues, "no provider identity declared")
	}
	return CategoryScore{Score: score, Max: maxProvider, Details: details}
}

func scoreSecurity(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	details := map[string]bool{
		"httpsOnly":       false,
		"securitySchemes": false,
		"strongAuth":      false,
		"noHttpUrls":      true,
	}
	score := 0.0

	anyHTTP := false
	for _, f := range cardURLFields(card) {
		if !IsHTTPSURL(f.value) {
			anyHTTP = true
		}
	}
	if !anyHTTP && len(cardURLFields(card)) > 0 {
		details["httpsOnly"] = true
		score += 10
	}

	if len(card.SecuritySchemes) > 0 {
		details["securitySchemes"] = true
		score += 5
		if hasStrongAuth(card.SecuritySchemes) {
			details["strongAuth"] = true
			score += 5
		}
	}

	if anyHTTP {
		details["noHttpUrls"] = false
		score -= 10
		*issues = append(*issues, "card declares plaintext (non-HTTPS) URLs")
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxSecurity)), Max: maxSecurity, Details: details}
}

// hasStrongAuth reports whether any declared scheme is OAuth2, OpenID
// Connect, or mutual TLS.
func hasStrongAuth(schemes map[string]agentcard.SecurityScheme) bool {
	for _, scheme := range schemes {
		t := strings.ToLower(scheme.Type)
		if t == "oauth2" || t == "openidconnect" || t == "mutualtls" {
			return true
		}
		if strings.ToLower(scheme.Scheme) == "mtls" {
			return true
		}
	}
	return false
}

func scoreDocumentation(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	details := map[string]bool{
		"documentationUrl":  card.DocumentationURL != "",
		"termsOfServiceUrl": card.TermsOfServiceURL != "",
		"privacyPolicyUrl":  card.PrivacyPolicyURL != "",
	}
	score := 0.0
	for _, present := range details {
		if present {
			score += 5
		}
	}
	if score == 0 {
		*issues = append(*issues, "no documentation or policy URLs declared")
	}
	return CategoryScore{Score: score, Max: maxDocumentation, Details: details}
}
