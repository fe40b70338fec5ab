// Package agentcard defines the A2A Agent Card data model.
package agentcard

// TransportProtocol defines the supported transport protocols for A2A agents.
type TransportProtocol string

const (
	TransportJSONRPC  TransportProtocol = "JSONRPC"
	TransportGRPC     TransportProtocol = "GRPC"
	TransportHTTPJSON TransportProtocol = "HTTP+JSON"
)

// KnownTransports lists every transport protocol this engine understands.
var KnownTransports = []TransportProtocol{TransportJSONRPC, TransportGRPC, TransportHTTPJSON}

// IsKnownTransport reports whether t is one of the three declared transports.
func IsKnownTransport(t TransportProtocol) bool {
	switch t {
	case TransportJSONRPC, TransportGRPC, TransportHTTPJSON:
		return true
	}
	return false
}

// AgentCard represents the A2A Agent Card structure based on the v0.3.0 specification.
type AgentCard struct {
	ProtocolVersion                   string                    `json:"protocolVersion"`
	Name                              string                    `json:"name"`
	Description                       string                    `json:"description"`
	URL                               string                    `json:"url"`
	PreferredTransport                TransportProtocol         `json:"preferredTransport,omitempty"`
	AdditionalInterfaces              []AgentInterface          `json:"additionalInterfaces,omitempty"`
	Provider                          *AgentProvider            `json:"provider,omitempty"`
	IconURL                           string                    `json:"iconUrl,omitempty"`
	Version                           string                    `json:"version"`
	DocumentationURL                  string                    `json:"documentationUrl,omitempty"`
	TermsOfServiceURL                 string                    `json:"termsOfServiceUrl,omitempty"`
	PrivacyPolicyURL                  string                    `json:"privacyPolicyUrl,omitempty"`
	Capabilities                      *AgentCapabilities        `json:"capabilities,omitempty"`
	SecuritySchemes                   map[string]SecurityScheme `json:"securitySchemes,omitempty"`
	Security                          []map[string][]string     `json:"security,omitempty"`
	DefaultInputModes                 []string                  `json:"defaultInputModes,omitempty"`
	DefaultOutputModes                []string                  `json:"defaultOutputModes,omitempty"`
	Skills                            []AgentSkill              `json:"skills,omitempty"`
	SupportsAuthenticatedExtendedCard bool                      `json:"supportsAuthenticatedExtendedCard,omitempty"`
	Signatures                        []Signature               `json:"signatures,omitempty"`
	Extensions                        []AgentExtension          `json:"extensions,omitempty"`
}

// AgentProvider contains information about the agent's provider.
type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url"`
}

// AgentCapabilities defines the capabilities supported by the agent.
type AgentCapabilities struct {
	Streaming              bool `json:"streaming,omitempty"`
	PushNotifications      bool `json:"pushNotifications,omitempty"`
	StateTransitionHistory bool `json:"stateTransitionHistory,omitempty"`
}

// AgentInterface defines an additional (URL, transport) binding for the agent.
type AgentInterface struct {
	URL       string            `json:"url"`
	Transport TransportProtocol `json:"transport"`
}

// SecurityScheme defines a security scheme declared by the agent.
type SecurityScheme struct {
	Type             string      `json:"type"`
	Scheme           string      `json:"scheme,omitempty"`
	BearerFormat     string      `json:"bearerFormat,omitempty"`
	OpenIDConnectURL string      `json:"openIdConnectUrl,omitempty"`
	Flows            interface{} `json:"flows,omitempty"`
}

// AgentSkill defines a skill provided by the agent.
type AgentSkill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Examples    []string `json:"examples,omitempty"`
	InputModes  []string `json:"inputModes,omitempty"`
	OutputModes []string `json:"outputModes,omitempty"`
}

// Signature represents a detached JWS signature on the Agent Card.
type Signature struct {
	Protected string `json:"protected"`
	Signature string `json:"signature"`
}

// AgentExtension defines a protocol extension supported by the agent.
type AgentExtension struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
}

// InterfaceBindings returns the primary (URL, transport) pair followed by every
// additional interface, in declaration order. The primary transport defaults to
// JSONRPC when unspecified, matching common A2A client behavior.
func (c *AgentCard) InterfaceBindings() []AgentInterface {
	primary := AgentInterface{URL: c.URL, Transport: c.PreferredTransport}
	if primary.Transport == "" {
		primary.Transport = TransportJSONRPC
	}
	bindings := make([]AgentInterface, 0, 1+len(c.AdditionalInterfaces))
	bindings = append(bindings, primary)
	bindings = append(bindings, c.AdditionalInterfaces...)
	return bindings
}
