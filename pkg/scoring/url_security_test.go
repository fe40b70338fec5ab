package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

func findIssue(issues []URLIssue, code string) *URLIssue {
	for i := range issues {
		if issues[i].Code == code {
			return &issues[i]
		}
	}
	return nil
}

func TestURLValidator_ValidHTTPS(t *testing.T) {
	v := NewURLValidator(false, false)
	assert.Empty(t, v.Validate("https://agent.example.com/a2a"))
	assert.Empty(t, v.Validate("grpcs://agent.example.com:443"))
}

func TestURLValidator_EmptyIsNoop(t *testing.T) {
	v := NewURLValidator(false, true)
	assert.Empty(t, v.Validate(""))
}

func TestURLValidator_InvalidScheme(t *testing.T) {
	v := NewURLValidator(false, false)
	issues := v.Validate("ftp://example.com/card.json")
	if assert.Len(t, issues, 1) {
		assert.Equal(t, "INVALID_URL_SCHEME", issues[0].Code)
		assert.Equal(t, "error", issues[0].Severity)
	}
}

func TestURLValidator_MissingHost(t *testing.T) {
	v := NewURLValidator(false, false)
	issues := v.Validate("https:///path-only")
	if assert.Len(t, issues, 1) {
		assert.Equal(t, "INVALID_URL_HOST", issues[0].Code)
	}
}

func TestURLValidator_PlaintextSeverityDependsOnMode(t *testing.T) {
	relaxed := NewURLValidator(false, false)
	issue := findIssue(relaxed.Validate("http://example.com"), "INSECURE_URL_SCHEME")
	if assert.NotNil(t, issue) {
		assert.Equal(t, "warning", issue.Severity)
	}

	strict := NewURLValidator(false, true)
	issue = findIssue(strict.Validate("http://example.com"), "INSECURE_URL_SCHEME")
	if assert.NotNil(t, issue) {
		assert.Equal(t, "error", issue.Severity)
	}
}

func TestURLValidator_PrivateHostsAlwaysError(t *testing.T) {
	v := NewURLValidator(false, false)
	for _, u := range []string{
		"https://localhost/a2a",
		"https://agent.localhost/a2a",
		"https://127.0.0.1/a2a",
		"https://10.1.2.3/a2a",
		"https://192.168.1.10/a2a",
		"https://169.254.0.1/a2a",
		"https://0.0.0.0/a2a",
		"https://[::1]/a2a",
	} {
		issue := findIssue(v.Validate(u), "INSECURE_URL_PRIVATE_IP")
		if assert.NotNil(t, issue, u) {
			assert.Equal(t, "error", issue.Severity)
		}
	}
}

func TestURLValidator_AllowPrivateIPs(t *testing.T) {
	v := NewURLValidator(true, false)
	assert.Nil(t, findIssue(v.Validate("https://127.0.0.1/a2a"), "INSECURE_URL_PRIVATE_IP"))
}

func TestIsLocalOrPrivateHost_DomainNamesNotResolved(t *testing.T) {
	// No DNS: a name that happens to resolve to a private IP is not flagged.
	assert.False(t, IsLocalOrPrivateHost("internal.example.com"))
	assert.True(t, IsLocalOrPrivateHost("localhost"))
	assert.True(t, IsLocalOrPrivateHost("::1"))
	assert.False(t, IsLocalOrPrivateHost("8.8.8.8"))
}

func TestIsHTTPSURL(t *testing.T) {
	assert.True(t, IsHTTPSURL("https://example.com"))
	assert.True(t, IsHTTPSURL("grpcs://example.com"))
	assert.False(t, IsHTTPSURL("http://example.com"))
	assert.False(t, IsHTTPSURL("grpc://example.com"))
}

func TestCardURLFields_FixedOrderAndPresenceFilter(t *testing.T) {
	card := &agentcard.AgentCard{
		URL:     "https://a.example.com",
		IconURL: "",
		Provider: &agentcard.AgentProvider{
			URL: "https://p.example.com",
		},
		AdditionalInterfaces: []agentcard.AgentInterface{
			{URL: "https://b.example.com", Transport: agentcard.TransportGRPC},
		},
	}

	fields := cardURLFields(card)
	if assert.Len(t, fields, 3) {
		assert.Equal(t, "url", fields[0].path)
		assert.Equal(t, "provider.url", fields[1].path)
		assert.Equal(t, "additionalInterfaces[0].url", fields[2].path)
	}
}
