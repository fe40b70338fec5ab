package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/report"
)

func validCard() *agentcard.AgentCard {
	return &agentcard.AgentCard{
		Name:               "Test Agent",
		Description:        "A test agent",
		URL:                "https://agent.example.com/a2a",
		Version:            "1.0.0",
		ProtocolVersion:    "0.3.0",
		PreferredTransport: agentcard.TransportJSONRPC,
		Provider: &agentcard.AgentProvider{
			Organization: "Example Org",
			URL:          "https://example.com",
		},
		Capabilities:       &agentcard.AgentCapabilities{},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"application/json"},
		Skills: []agentcard.AgentSkill{
			{ID: "echo", Name: "Echo", Description: "Echoes input", Tags: []string{"utility"}},
		},
	}
}

func errorCodes(res *Result) []string {
	var codes []string
	for _, e := range res.Errors {
		codes = append(codes, e.Code)
	}
	return codes
}

func warningCodes(res *Result) []string {
	var codes []string
	for _, w := range res.Warnings {
		codes = append(codes, w.Code)
	}
	return codes
}

func errorForField(res *Result, field string) *report.Issue {
	for i := range res.Errors {
		if res.Errors[i].Field == field {
			return &res.Errors[i]
		}
	}
	return nil
}

func TestValidator_ValidCardHasNoErrors(t *testing.T) {
	res := New(Options{}).Validate(validCard())
	assert.Empty(t, res.Errors)
	assert.Empty(t, res.Warnings)
	assert.GreaterOrEqual(t, res.DurationMS, int64(0))
}

func TestValidator_AllRequiredFieldsReported(t *testing.T) {
	res := New(Options{}).Validate(&agentcard.AgentCard{})

	missing := 0
	for _, e := range res.Errors {
		if e.Code == "MISSING_REQUIRED_FIELD" {
			missing++
		}
	}
	assert.Equal(t, 11, missing, "all eleven required fields must be reported")
}

func TestValidator_EachRequiredFieldNamesItself(t *testing.T) {
	fields := []struct {
		name   string
		mutate func(*agentcard.AgentCard)
	}{
		{"name", func(c *agentcard.AgentCard) { c.Name = "" }},
		{"description", func(c *agentcard.AgentCard) { c.Description = "" }},
		{"url", func(c *agentcard.AgentCard) { c.URL = "" }},
		{"provider", func(c *agentcard.AgentCard) { c.Provider = nil }},
		{"version", func(c *agentcard.AgentCard) { c.Version = "" }},
		{"protocolVersion", func(c *agentcard.AgentCard) { c.ProtocolVersion = "" }},
		{"preferredTransport", func(c *agentcard.AgentCard) { c.PreferredTransport = "" }},
		{"capabilities", func(c *agentcard.AgentCard) { c.Capabilities = nil }},
		{"defaultInputModes", func(c *agentcard.AgentCard) { c.DefaultInputModes = nil }},
		{"defaultOutputModes", func(c *agentcard.AgentCard) { c.DefaultOutputModes = nil }},
		{"skills", func(c *agentcard.AgentCard) { c.Skills = nil }},
	}

	for _, tc := range fields {
		t.Run(tc.name, func(t *testing.T) {
			card := validCard()
			tc.mutate(card)
			res := New(Options{}).Validate(card)
			issue := errorForField(res, tc.name)
			if assert.NotNil(t, issue) {
				assert.Equal(t, "MISSING_REQUIRED_FIELD", issue.Code)
			}
		})
	}
}

func TestValidator_InvalidSemVer(t *testing.T) {
	card := validCard()
	card.Version = "v1.0"
	res := New(Options{}).Validate(card)
	assert.Contains(t, errorCodes(res), "INVALID_VERSION")
}

func TestValidator_UnknownProtocolVersion(t *testing.T) {
	card := validCard()
	card.ProtocolVersion = "0.9.9"
	res := New(Options{}).Validate(card)
	assert.Contains(t, errorCodes(res), "UNKNOWN_PROTOCOL_VERSION")
}

func TestValidator_InvalidTransport(t *testing.T) {
	card := validCard()
	card.PreferredTransport = "WEBSOCKET"
	res := New(Options{}).Validate(card)

	issue := errorForField(res, "preferredTransport")
	if assert.NotNil(t, issue) {
		assert.Equal(t, "INVALID_TRANSPORT", issue.Code)
		assert.Contains(t, issue.Message, "JSONRPC, GRPC, HTTP+JSON")
	}
}

func TestValidator_InterfaceChecks(t *testing.T) {
	card := validCard()
	card.AdditionalInterfaces = []agentcard.AgentInterface{
		{URL: "", Transport: ""},
		{URL: "https://b.example.com", Transport: "CARRIER_PIGEON"},
	}
	res := New(Options{}).Validate(card)

	codes := errorCodes(res)
	assert.Contains(t, codes, "MISSING_INTERFACE_TRANSPORT")
	assert.Contains(t, codes, "MISSING_INTERFACE_URL")
	issue := errorForField(res, "additionalInterfaces[1].transport")
	if assert.NotNil(t, issue) {
		assert.Equal(t, "INVALID_TRANSPORT", issue.Code)
	}
}

func TestValidator_HTTPSeverityByMode(t *testing.T) {
	card := validCard()
	card.URL = "http://agent.example.com/a2a"

	relaxed := New(Options{}).Validate(card)
	assert.Contains(t, warningCodes(relaxed), "INSECURE_URL_SCHEME")
	assert.NotContains(t, errorCodes(relaxed), "INSECURE_URL_SCHEME")

	strict := New(Options{Strict: true}).Validate(card)
	assert.Contains(t, errorCodes(strict), "INSECURE_URL_SCHEME")
}

func TestValidator_PrivateHostBlockedUnlessAllowed(t *testing.T) {
	card := validCard()
	card.URL = "https://127.0.0.1/a2a"

	res := New(Options{}).Validate(card)
	assert.Contains(t, errorCodes(res), "INSECURE_URL_PRIVATE_IP")

	allowed := New(Options{AllowPrivateIPs: true}).Validate(card)
	assert.NotContains(t, errorCodes(allowed), "INSECURE_URL_PRIVATE_IP")
}

func TestValidator_SkillChecks(t *testing.T) {
	card := validCard()
	card.Skills = []agentcard.AgentSkill{
		{ID: "", Name: "", Description: "", Tags: nil},
		{ID: "a", Name: "A", Description: "first", Tags: []string{"t"}},
		{ID: "a", Name: "A2", Description: "duplicate id", Tags: []string{"t"}},
	}
	res := New(Options{}).Validate(card)

	codes := errorCodes(res)
	assert.Contains(t, codes, "MISSING_SKILL_ID")
	assert.Contains(t, codes, "MISSING_SKILL_NAME")
	assert.Contains(t, codes, "MISSING_SKILL_DESCRIPTION")
	assert.Contains(t, warningCodes(res), "MISSING_SKILL_TAGS")

	dupes := 0
	for _, e := range res.Errors {
		if e.Code == "SCHEMA_VALIDATION_ERROR" {
			dupes++
			assert.Contains(t, e.Message, `duplicate skill id "a"`)
		}
	}
	assert.Equal(t, 1, dupes, "exactly one duplicate-id finding")
}

func TestValidator_FieldLengthCaps(t *testing.T) {
	card := validCard()
	card.Name = strings.Repeat("n", MaxNameLength+1)
	card.Skills[0].Description = strings.Repeat("d", MaxDescriptionLength+1)
	res := New(Options{}).Validate(card)

	long := 0
	for _, e := range res.Errors {
		if e.Code == "FIELD_TOO_LONG" {
			long++
		}
	}
	assert.Equal(t, 2, long)
}

func TestValidator_InvalidMIMETypes(t *testing.T) {
	card := validCard()
	card.DefaultInputModes = []string{"text/plain", "not a mime type"}
	res := New(Options{}).Validate(card)

	issue := errorForField(res, "defaultInputModes[1]")
	if assert.NotNil(t, issue) {
		assert.Equal(t, "INVALID_MIME_TYPE", issue.Code)
	}
}

func TestValidator_TransportURLConflict(t *testing.T) {
	card := validCard()
	card.AdditionalInterfaces = []agentcard.AgentInterface{
		{URL: card.URL, Transport: agentcard.TransportJSONRPC},
		{URL: card.URL, Transport: agentcard.TransportGRPC},
	}
	res := New(Options{}).Validate(card)
	assert.Contains(t, errorCodes(res), "TRANSPORT_URL_CONFLICT")
}

func TestValidator_PrimaryEchoWarningOnlyWithAlternates(t *testing.T) {
	// No additional interfaces: nothing to warn about.
	res := New(Options{}).Validate(validCard())
	assert.NotContains(t, warningCodes(res), "PRIMARY_INTERFACE_NOT_DECLARED")

	// Alternates declared but none repeats the primary pair.
	card := validCard()
	card.AdditionalInterfaces = []agentcard.AgentInterface{
		{URL: "https://alt.example.com", Transport: agentcard.TransportGRPC},
	}
	res = New(Options{}).Validate(card)
	assert.Contains(t, warningCodes(res), "PRIMARY_INTERFACE_NOT_DECLARED")

	// Primary pair repeated: warning clears.
	card.AdditionalInterfaces = append(card.AdditionalInterfaces, agentcard.AgentInterface{
		URL:       card.URL,
		Transport: agentcard.TransportJSONRPC,
	})
	res = New(Options{}).Validate(card)
	assert.NotContains(t, warningCodes(res), "PRIMARY_INTERFACE_NOT_DECLARED")
}

func TestValidator_ProviderChecks(t *testing.T) {
	card := validCard()
	card.Provider = &agentcard.AgentProvider{}
	res := New(Options{}).Validate(card)
	assert.Contains(t, errorCodes(res), "MISSING_PROVIDER_ORG")
	assert.Contains(t, warningCodes(res), "MISSING_PROVIDER_URL")
}
