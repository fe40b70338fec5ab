package scoring

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/compat"
)

// Category maxima for the compliance dimension.
const (
	maxRequiredFields   = 60.0
	maxSkillsQuality    = 20.0
	maxFormatCompliance = 15.0
	maxDataQuality      = 5.0

	maxNameLength        = 200
	maxDescriptionLength = 2000
)

// coreRequiredFields are the nine fields the 60-point category is divided
// over. Provider and preferredTransport are validated elsewhere but not
// core-scored, so a single missing field always costs exactly 60/9 points.
var coreRequiredFields = []string{
	"name",
	"description",
	"url",
	"version",
	"protocolVersion",
	"capabilities",
	"defaultInputModes",
	"defaultOutputModes",
	"skills",
}

// mimeTypeRe matches a type/subtype media type, including wildcards.
var mimeTypeRe = regexp.MustCompile(`^[a-zA-Z0-9!#$&^_.+-]+/[a-zA-Z0-9!#$&^_.*+-]+$`)

// scoreCompliance computes the compliance breakdown from the card alone.
func scoreCompliance(card *agentcard.AgentCard) ComplianceBreakdown {
	b := ComplianceBreakdown{}
	if card == nil {
		card = &agentcard.AgentCard{}
	}

	b.RequiredFields = scoreRequiredFields(card, &b.Issues)
	b.SkillsQuality = scoreSkillsQuality(card, &b.Issues)
	b.FormatCompliance = scoreFormatCompliance(card, &b.Issues)
	b.DataQuality = scoreDataQuality(card, &b.Issues)

	total := b.RequiredFields.Score + b.SkillsQuality.Score + b.FormatCompliance.Score + b.DataQuality.Score
	b.Total = round2(clamp(total, 0, 100))
	b.Rating = rating(b.Total)
	return b
}

func scoreRequiredFields(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	present := map[string]bool{
		"name":               card.Name != "",
		"description":        card.Description != "",
		"url":                card.URL != "",
		"version":            card.Version != "",
		"protocolVersion":    card.ProtocolVersion != "",
		"capabilities":       card.Capabilities != nil,
		"defaultInputModes":  len(card.DefaultInputModes) > 0,
		"defaultOutputModes": len(card.DefaultOutputModes) > 0,
		"skills":             len(card.Skills) > 0,
	}

	perField := maxRequiredFields / float64(len(coreRequiredFields))
	score := maxRequiredFields
	details := make(map[string]bool, len(coreRequiredFields))
	for _, field := range coreRequiredFields {
		details[field] = present[field]
		if !present[field] {
			score -= perField
			*issues = append(*issues, "missing required field: "+field)
		}
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxRequiredFields)), Max: maxRequiredFields, Details: details}
}

func scoreSkillsQuality(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	details := map[string]bool{
		"hasSkills":      len(card.Skills) > 0,
		"completeSkills": false,
		"taggedSkills":   false,
	}
	if len(card.Skills) == 0 {
		return CategoryScore{Score: 0, Max: maxSkillsQuality, Details: details}
	}

	base := 5.0

	// Per-skill penalties only erode their own award, never the base
	// presence points.
	completeness := 10.0
	incomplete := 0
	for _, skill := range card.Skills {
		if skill.ID == "" || skill.Name == "" || skill.Description == "" {
			incomplete++
			completeness -= 2
		}
	}
	completeness = clamp(completeness, 0, 10)
	details["completeSkills"] = incomplete == 0
	if incomplete > 0 {
		*issues = append(*issues, fmt.Sprintf("%d skill(s) missing id, name, or description", incomplete))
	}

	tagged := 5.0
	untagged := 0
	for _, skill := range card.Skills {
		if len(skill.Tags) == 0 {
			untagged++
			tagged--
		}
	}
	tagged = clamp(tagged, 0, 5)
	details["taggedSkills"] = untagged == 0
	if untagged > 0 {
		*issues = append(*issues, fmt.Sprintf("%d skill(s) have no tags", untagged))
	}

	score := clamp(base+completeness+tagged, 0, maxSkillsQuality)
	return CategoryScore{Score: round2(score), Max: maxSkillsQuality, Details: details}
}

func scoreFormatCompliance(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	// Five independent 3-point checks. A check only fires against fields
	// that are present; absence is already priced into requiredFields.
	checks := map[string]bool{
		"semverVersion":        card.Version == "" || compat.IsValidSemVer(card.Version),
		"knownProtocolVersion": card.ProtocolVersion == "" || compat.IsKnownProtocolVersion(card.ProtocolVersion),
		"validUrls":            formatURLsOK(card),
		"validTransports":      transportsOK(card),
		"validMimeTypes":       mimeTypesOK(card),
	}

	score := maxFormatCompliance
	for _, name := range []string{"semverVersion", "knownProtocolVersion", "validUrls", "validTransports", "validMimeTypes"} {
		if !checks[name] {
			score -= 3
			*issues = append(*issues, "format check failed: "+name)
		}
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxFormatCompliance)), Max: maxFormatCompliance, Details: checks}
}

// formatURLsOK requires every declared URL to parse and the primary url to be
// TLS-protected. Plaintext primaries fail this check in every mode.
func formatURLsOK(card *agentcard.AgentCard) bool {
	v := NewURLValidator(true, false)
	for _, f := range cardURLFields(card) {
		for _, issue := range v.Validate(f.value) {
			if issue.Code == "INVALID_URL_FORMAT" || issue.Code == "INVALID_URL_SCHEME" || issue.Code == "INVALID_URL_HOST" {
				return false
			}
		}
	}
	if card.URL != "" && !IsHTTPSURL(card.URL) {
		return false
	}
	return true
}

func transportsOK(card *agentcard.AgentCard) bool {
	if card.PreferredTransport != "" && !agentcard.IsKnownTransport(card.PreferredTransport) {
		return false
	}
	for _, iface := range card.AdditionalInterfaces {
		if !agentcard.IsKnownTransport(iface.Transport) {
			return false
		}
	}
	return true
}

func mimeTypesOK(card *agentcard.AgentCard) bool {
	for _, mode := range card.DefaultInputModes {
		if !IsMIMEType(mode) {
			return false
		}
	}
	for _, mode := range card.DefaultOutputModes {
		if !IsMIMEType(mode) {
			return false
		}
	}
	return true
}

// IsMIMEType reports whether s is a syntactically valid type/subtype media type.
func IsMIMEType(s string) bool {
	return mimeTypeRe.MatchString(s)
}

func scoreDataQuality(card *agentcard.AgentCard, issues *[]string) CategoryScore {
	details := map[string]bool{
		"uniqueSkillIds": true,
		"fieldLengths":   true,
		"noSSRFPatterns": true,
	}
	score := maxDataQuality

	seen := make(map[string]bool)
	for _, skill := range card.Skills {
		if skill.ID == "" {
			continue
		}
		if seen[skill.ID] {
			details["uniqueSkillIds"] = false
		}
		seen[skill.ID] = true
	}
	if !details["uniqueSkillIds"] {
		score -= 2
		*issues = append(*issues, "duplicate skill ids")
	}

	if lengthViolations(card) {
		details["fieldLengths"] = false
		score -= 2
		*issues = append(*issues, "field length limits exceeded")
	}

	for _, f := range cardURLFields(card) {
		if u := strings.TrimSpace(f.value); u != "" {
			if host := hostnameOf(u); host != "" && IsLocalOrPrivateHost(host) {
				details["noSSRFPatterns"] = false
			}
		}
	}
	if !details["noSSRFPatterns"] {
		score--
		*issues = append(*issues, "URL targets a private or loopback address")
	}

	return CategoryScore{Score: round2(clamp(score, 0, maxDataQuality)), Max: maxDataQuality, Details: details}
}

func hostnameOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func lengthViolations(card *agentcard.AgentCard) bool {
	if len(card.Name) > maxNameLength || len(card.Description) > maxDescriptionLength {
		return true
	}
	for _, skill := range card.Skills {
		if len(skill.Name) > maxNameLength || len(skill.Description) > maxDescriptionLength {
			return true
		}
	}
	return false
}
