// Package schema performs structural and format validation of Agent Cards.
// The validator is a pure function of the card: it never performs I/O.
package schema

import (
	"fmt"
	"time"

	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/compat"
	"github.com/capiscio/cardscore/pkg/report"
	"github.com/capiscio/cardscore/pkg/scoring"
)

// Field length limits (characters).
const (
	MaxNameLength        = 200
	MaxDescriptionLength = 2000
)

// Options configures the Validator.
type Options struct {
	// Strict requires https on every URL instead of merely warning.
	Strict bool
	// AllowPrivateIPs disables the SSRF guard for loopback/private hosts.
	AllowPrivateIPs bool
}

// Result carries the validator's findings.
type Result struct {
	Errors     []report.Issue `json:"errors"`
	Warnings   []report.Issue `json:"warnings"`
	DurationMS int64          `json:"durationMs"`
}

// Validator checks presence, type, and format of every Agent Card field.
type Validator struct {
	opts Options
}

// New creates a Validator.
func New(opts Options) *Validator {
	return &Validator{opts: opts}
}

type requiredField struct {
	name    string
	present func(*agentcard.AgentCard) bool
}

var requiredFields = []requiredField{
	{"name", func(c *agentcard.AgentCard) bool { return c.Name != "" }},
	{"description", func(c *agentcard.AgentCard) bool { return c.Description != "" }},
	{"url", func(c *agentcard.AgentCard) bool { return c.URL != "" }},
	{"provider", func(c *agentcard.AgentCard) bool { return c.Provider != nil }},
	{"version", func(c *agentcard.AgentCard) bool { return c.Version != "" }},
	{"protocolVersion", func(c *agentcard.AgentCard) bool { return c.ProtocolVersion != "" }},
	{"preferredTransport", func(c *agentcard.AgentCard) bool { return c.PreferredTransport != "" }},
	{"capabilities", func(c *agentcard.AgentCard) bool { return c.Capabilities != nil }},
	{"defaultInputModes", func(c *agentcard.AgentCard) bool { return len(c.DefaultInputModes) > 0 }},
	{"defaultOutputModes", func(c *agentcard.AgentCard) bool { return len(c.DefaultOutputModes) > 0 }},
	{"skills", func(c *agentcard.AgentCard) bool { return len(c.Skills) > 0 }},
}

// Validate runs every check against the card and returns the accumulated
// findings, ordered by check then by field declaration order.
func (v *Validator) Validate(card *agentcard.AgentCard) *Result {
	start := time.Now()
	res := &Result{}

	v.checkRequiredFields(card, res)
	v.checkVersions(card, res)
	v.checkURLs(card, res)
	v.checkTransports(card, res)
	v.checkSkills(card, res)
	v.checkMIMEModes(card, res)
	v.checkTransportConsistency(card, res)
	v.checkProvider(card, res)

	res.DurationMS = time.Since(start).Milliseconds()
	return res
}

func (r *Result) addError(code, message, field string) {
	r.Errors = append(r.Errors, report.Issue{Code: code, Message: message, Field: field, Severity: "error"})
}

func (r *Result) addFixableError(code, message, field string) {
	r.Errors = append(r.Errors, report.Issue{Code: code, Message: message, Field: field, Severity: "error", Fixable: true})
}

func (r *Result) addWarning(code, message, field string) {
	r.Warnings = append(r.Warnings, report.Issue{Code: code, Message: message, Field: field, Severity: "warning"})
}

func (r *Result) addFixableWarning(code, message, field string) {
	r.Warnings = append(r.Warnings, report.Issue{Code: code, Message: message, Field: field, Severity: "warning", Fixable: true})
}

func (v *Validator) checkRequiredFields(card *agentcard.AgentCard, res *Result) {
	for _, rf := range requiredFields {
		if !rf.present(card) {
			res.addError("MISSING_REQUIRED_FIELD", rf.name+" is required", rf.name)
		}
	}
}

func (v *Validator) checkVersions(card *agentcard.AgentCard, res *Result) {
	if card.Version != "" && !compat.IsValidSemVer(card.Version) {
		res.addFixableError("INVALID_VERSION", "version must be a valid semantic version (MAJOR.MINOR.PATCH)", "version")
	}
	if card.ProtocolVersion != "" && !compat.IsKnownProtocolVersion(card.ProtocolVersion) {
		res.addError("UNKNOWN_PROTOCOL_VERSION",
			fmt.Sprintf("protocolVersion %q is not a released A2A version", card.ProtocolVersion), "protocolVersion")
	}
}

func (v *Validator) checkURLs(card *agentcard.AgentCard, res *Result) {
	urlVal := scoring.NewURLValidator(v.opts.AllowPrivateIPs, v.opts.Strict)
	for _, f := range cardURLFields(card) {
		for _, issue := range urlVal.Validate(f.value) {
			if issue.Severity == "error" {
				res.addError(issue.Code, issue.Message, f.path)
			} else {
				res.addFixableWarning(issue.Code, issue.Message, f.path)
			}
		}
	}
}

func (v *Validator) checkTransports(card *agentcard.AgentCard, res *Result) {
	if card.PreferredTransport != "" && !agentcard.IsKnownTransport(card.PreferredTransport) {
		res.addError("INVALID_TRANSPORT",
			"invalid transport protocol, valid options: JSONRPC, GRPC, HTTP+JSON", "preferredTransport")
	}
	for i, iface := range card.AdditionalInterfaces {
		field := fmt.Sprintf("additionalInterfaces[%d].transport", i)
		if iface.Transport == "" {
			res.addError("MISSING_INTERFACE_TRANSPORT", "interface transport is required", field)
		} else if !agentcard.IsKnownTransport(iface.Transport) {
			res.addError("INVALID_TRANSPORT",
				"invalid transport protocol, valid options: JSONRPC, GRPC, HTTP+JSON", field)
		}
		if iface.URL == "" {
			res.addError("MISSING_INTERFACE_URL", "interface URL is required",
				fmt.Sprintf("additionalInterfaces[%d].url", i))
		}
	}
}

func (v *Validator) checkSkills(card *agentcard.AgentCard, res *Result) {
	if len(card.Name) > MaxNameLength {
		res.addError("FIELD_TOO_LONG",
			fmt.Sprintf("name exceeds %d characters", MaxNameLength), "name")
	}
	if len(card.Description) > MaxDescriptionLength {
		res.addError("FIELD_TOO_LONG",
			fmt.Sprintf("description exceeds %d characters", MaxDescriptionLength), "description")
	}

	seen := make(map[string]int)
	for i, skill := range card.Skills {
		prefix := fmt.Sprintf("skills[%d]", i)
		if skill.ID == "" {
			res.addError("MISSING_SKILL_ID", "skill id is required", prefix+".id")
		} else if first, dup := seen[skill.ID]; dup {
			res.addError("SCHEMA_VALIDATION_ERROR",
				fmt.Sprintf("duplicate skill id %q (first declared at skills[%d])", skill.ID, first), prefix+".id")
		} else {
			seen[skill.ID] = i
		}
		if skill.Name == "" {
			res.addError("MISSING_SKILL_NAME", "skill name is required", prefix+".name")
		} else if len(skill.Name) > MaxNameLength {
			res.addError("FIELD_TOO_LONG",
				fmt.Sprintf("skill name exceeds %d characters", MaxNameLength), prefix+".name")
		}
		if skill.Description == "" {
			res.addError("MISSING_SKILL_DESCRIPTION", "skill description is required", prefix+".description")
		} else if len(skill.Description) > MaxDescriptionLength {
			res.addError("FIELD_TOO_LONG",
				fmt.Sprintf("skill description exceeds %d characters", MaxDescriptionLength), prefix+".description")
		}
		if len(skill.Tags) == 0 {
			res.addFixableWarning("MISSING_SKILL_TAGS", "skill should declare at least one tag", prefix+".tags")
		}
	}
}

func (v *Validator) checkMIMEModes(card *agentcard.AgentCard, res *Result) {
	for i, mode := range card.DefaultInputModes {
		if !scoring.IsMIMEType(mode) {
			res.addError("INVALID_MIME_TYPE",
				fmt.Sprintf("%q is not a valid type/subtype media type", mode),
				fmt.Sprintf("defaultInputModes[%d]", i))
		}
	}
	for i, mode := range card.DefaultOutputModes {
		if !scoring.IsMIMEType(mode) {
			res.addError("INVALID_MIME_TYPE",
				fmt.Sprintf("%q is not a valid type/subtype media type", mode),
				fmt.Sprintf("defaultOutputModes[%d]", i))
		}
	}
}

// checkTransportConsistency enforces A2A §5.6.4: one URL, one transport.
func (v *Validator) checkTransportConsistency(card *agentcard.AgentCard, res *Result) {
	if card.URL == "" {
		return
	}
	bindings := card.InterfaceBindings()
	byURL := make(map[string]agentcard.TransportProtocol)
	for i, b := range bindings {
		if b.URL == "" {
			continue
		}
		if prev, ok := byURL[b.URL]; ok && prev != b.Transport {
			field := "additionalInterfaces"
			if i > 0 {
				field = fmt.Sprintf("additionalInterfaces[%d]", i-1)
			}
			res.addError("TRANSPORT_URL_CONFLICT",
				fmt.Sprintf("URL %s is declared with conflicting transports (%s and %s)", b.URL, prev, b.Transport),
				field)
			continue
		}
		byURL[b.URL] = b.Transport
	}

	if len(card.AdditionalInterfaces) == 0 {
		return
	}
	primary := bindings[0]
	for _, iface := range card.AdditionalInterfaces {
		if iface.URL == primary.URL && iface.Transport == primary.Transport {
			return
		}
	}
	res.addFixableWarning("PRIMARY_INTERFACE_NOT_DECLARED",
		"the primary url/preferredTransport pair should also appear in additionalInterfaces", "additionalInterfaces")
}

func (v *Validator) checkProvider(card *agentcard.AgentCard, res *Result) {
	if card.Provider == nil {
		return
	}
	if card.Provider.Organization == "" {
		res.addError("MISSING_PROVIDER_ORG", "provider organization is required", "provider.organization")
	}
	if card.Provider.URL == "" {
		res.addWarning("MISSING_PROVIDER_URL", "provider URL is recommended", "provider.url")
	}
}

// cardURLFields mirrors the scorer's URL inventory with field paths.
func cardURLFields(card *agentcard.AgentCard) []struct{ path, value string } {
	fields := []struct{ path, value string }{
		{"url", card.URL},
		{"iconUrl", card.IconURL},
		{"documentationUrl", card.DocumentationURL},
		{"termsOfServiceUrl", card.TermsOfServiceURL},
		{"privacyPolicyUrl", card.PrivacyPolicyURL},
	}
	if card.Provider != nil {
		fields = append(fields, struct{ path, value string }{"provider.url", card.Provider.URL})
	}
	for i, iface := range card.AdditionalInterfaces {
		fields = append(fields, struct{ path, value string }{
			fmt.Sprintf("additionalInterfaces[%d].url", i), iface.URL,
		})
	}
	var present []struct{ path, value string }
	for _, f := range fields {
		if f.value != "" {
			present = append(present, f)
		}
	}
	return present
}
