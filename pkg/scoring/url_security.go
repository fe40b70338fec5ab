package scoring

import (
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/capiscio/cardscore/pkg/agentcard"
)

// URLIssue is a URL-level finding, neutral enough for both the schema
// validator and the scorers to consume.
type URLIssue struct {
	Code     string
	Message  string
	Severity string
}

// URLValidator validates URLs for format and SSRF safety.
type URLValidator struct {
	AllowPrivateIPs bool
	RequireHTTPS    bool
}

// NewURLValidator creates a URLValidator. RequireHTTPS escalates plaintext
// schemes to errors; otherwise they are warnings.
func NewURLValidator(allowPrivateIPs, requireHTTPS bool) *URLValidator {
	return &URLValidator{
		AllowPrivateIPs: allowPrivateIPs,
		RequireHTTPS:    requireHTTPS,
	}
}

// Validate checks one URL. The SSRF guard applies regardless of mode; only
// the https requirement is mode-dependent.
func (v *URLValidator) Validate(rawURL string) []URLIssue {
	var issues []URLIssue

	if rawURL == "" {
		return issues
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return []URLIssue{{
			Code:     "INVALID_URL_FORMAT",
			Message:  "Invalid URL format: " + err.Error(),
			Severity: "error",
		}}
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" && scheme != "grpc" && scheme != "grpcs" {
		return []URLIssue{{
			Code:     "INVALID_URL_SCHEME",
			Message:  "URL must use http, https, grpc, or grpcs scheme",
			Severity: "error",
		}}
	}

	if parsed.Hostname() == "" {
		return []URLIssue{{
			Code:     "INVALID_URL_HOST",
			Message:  "URL must have a hostname",
			Severity: "error",
		}}
	}

	if scheme == "http" || scheme == "grpc" {
		severity := "warning"
		if v.RequireHTTPS {
			severity = "error"
		}
		issues = append(issues, URLIssue{
			Code:     "INSECURE_URL_SCHEME",
			Message:  "URL does not use a TLS-protected scheme",
			Severity: severity,
		})
	}

	if !v.AllowPrivateIPs && IsLocalOrPrivateHost(parsed.Hostname()) {
		issues = append(issues, URLIssue{
			Code:     "INSECURE_URL_PRIVATE_IP",
			Message:  "URL points at a loopback, private, or link-local address (SSRF risk)",
			Severity: "error",
		})
	}

	return issues
}

// IsLocalOrPrivateHost reports whether hostname is a literal loopback,
// private, or link-local address, or a well-known local name. Domain names
// are not resolved: validation must stay free of I/O.
func IsLocalOrPrivateHost(hostname string) bool {
	lower := strings.ToLower(hostname)
	if lower == "localhost" || strings.HasSuffix(lower, ".localhost") {
		return true
	}
	ip := net.ParseIP(hostname)
	if ip == nil {
		return false
	}
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}

// IsHTTPSURL reports whether rawURL parses and uses a TLS-protected scheme.
func IsHTTPSURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "https" || scheme == "grpcs"
}

// urlField is one URL-bearing field of the card, with its JSON path.
type urlField struct {
	path  string
	value string
}

// cardURLFields returns every URL the card carries, in a fixed order.
func cardURLFields(card *agentcard.AgentCard) []urlField {
	fields := []urlField{
		{"url", card.URL},
		{"iconUrl", card.IconURL},
		{"documentationUrl", card.DocumentationURL},
		{"termsOfServiceUrl", card.TermsOfServiceURL},
		{"privacyPolicyUrl", card.PrivacyPolicyURL},
	}
	if card.Provider != nil {
		fields = append(fields, urlField{"provider.url", card.Provider.URL})
	}
	for i, iface := range card.AdditionalInterfaces {
		fields = append(fields, urlField{
			path:  "additionalInterfaces[" + strconv.Itoa(i) + "].url",
			value: iface.URL,
		})
	}
	var present []urlField
	for _, f := range fields {
		if f.value != "" {
			present = append(present, f)
		}
	}
	return present
}
