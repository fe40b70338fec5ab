// Package validator wires the individual checks into a single validation
// pipeline: schema, version compatibility, signature verification, live
// transport probing, and scoring.
package validator

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/compat"
	"github.com/capiscio/cardscore/pkg/crypto"
	"github.com/capiscio/cardscore/pkg/probe"
	"github.com/capiscio/cardscore/pkg/report"
	"github.com/capiscio/cardscore/pkg/schema"
	"github.com/capiscio/cardscore/pkg/scoring"
	"github.com/capiscio/cardscore/pkg/trust"
)

// ValidationMode determines the strictness of the validation.
type ValidationMode string

const (
	// ModeProgressive is the default mode. Standard checks, allows some warnings.
	ModeProgressive ValidationMode = "progressive"
	// ModeStrict fails on ANY warning or error, and requires https everywhere.
	ModeStrict ValidationMode = "strict"
	// ModeConservative only fails on non-fixable errors.
	ModeConservative ValidationMode = "conservative"
)

// EngineConfig holds configuration for the validation Engine.
type EngineConfig struct {
	// Mode determines the validation strictness. Default: ModeProgressive.
	Mode ValidationMode

	// TrustedIssuers lists trusted JWKS URIs or hostnames. When empty, no
	// issuer check runs and every valid signature stands on its own.
	TrustedIssuers []string

	// TrustStore, when set, resolves JWKS lookups from pinned issuer keys
	// before falling back to the network.
	TrustStore trust.Store

	// JWKSCacheTTL is the time-to-live for cached JWKS. Default: 1 hour.
	JWKSCacheTTL time.Duration

	// HTTPTimeout bounds every probe and JWKS fetch. Default: 10 seconds.
	HTTPTimeout time.Duration

	// SkipSignatureVerification disables JWS signature verification.
	SkipSignatureVerification bool

	// SchemaOnly skips signature and network checks, validating structure only.
	SchemaOnly bool

	// AllowPrivateIPs allows URLs pointing at private or loopback hosts.
	AllowPrivateIPs bool

	// Logger receives structured progress logs. Defaults to a silent logger.
	Logger logrus.FieldLogger
}

// DefaultEngineConfig returns a default configuration.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Mode:         ModeProgressive,
		JWKSCacheTTL: 1 * time.Hour,
		HTTPTimeout:  10 * time.Second,
	}
}

// Engine is the main entry point for Agent Card validation and scoring.
type Engine struct {
	config   *EngineConfig
	schema   *schema.Validator
	compat   *compat.Analyzer
	verifier *crypto.Verifier
	prober   *probe.Runner
	issuers  trust.Checker
	log      logrus.FieldLogger
}

// NewEngine creates a new Engine with the provided configuration.
// If config is nil, default configuration is used.
func NewEngine(config *EngineConfig) *Engine {
	if config == nil {
		config = DefaultEngineConfig()
	}
	log := config.Logger
	if log == nil {
		log = httpclient.NopLogger()
	}
	if config.HTTPTimeout <= 0 {
		config.HTTPTimeout = 10 * time.Second
	}
	if config.Mode == "" {
		config.Mode = ModeProgressive
	}

	client := httpclient.New(
		httpclient.WithTimeout(config.HTTPTimeout),
		httpclient.WithLogger(log),
	)

	jwksFetcher := crypto.NewJWKSFetcherWithClient(client)
	if config.JWKSCacheTTL > 0 {
		jwksFetcher.SetTTL(config.JWKSCacheTTL)
	}
	fetcher := crypto.JWKSFetcher(jwksFetcher)
	if config.TrustStore != nil {
		fetcher = trust.NewPinnedFetcher(config.TrustStore, jwksFetcher)
	}

	return &Engine{
		config: config,
		schema: schema.New(schema.Options{
			Strict:          config.Mode == ModeStrict,
			AllowPrivateIPs: config.AllowPrivateIPs,
		}),
		compat:   compat.NewAnalyzer(),
		verifier: crypto.NewVerifierWithFetcher(fetcher),
		prober: probe.NewRunner(
			probe.WithTimeout(config.HTTPTimeout),
			probe.WithClient(client),
			probe.WithLogger(log),
		),
		issuers: trust.StaticList(config.TrustedIssuers),
		log:     log,
	}
}

// Validate runs the full pipeline against the card. Environmental failures
// (unreachable endpoints, bad keys) are reported inside the result; the error
// return is reserved for conditions that prevent the pipeline from running.
func (e *Engine) Validate(ctx context.Context, card *agentcard.AgentCard, checkLive bool) (*report.ValidationResult, error) {
	result := &report.ValidationResult{Success: true}

	if e.config.SchemaOnly {
		checkLive = false
	}

	e.runSchema(card, result)
	e.runCompat(card, result)

	if !e.config.SchemaOnly {
		e.runSignatures(ctx, card, result)
	} else {
		result.Signatures = crypto.SkippedResult(crypto.SkipDisabled)
	}

	if checkLive {
		e.runProbes(ctx, card, result)
	}

	sc := scoring.Score(scoring.Input{
		Card:       card,
		Signatures: result.Signatures,
		Probes:     result.LiveTest,
		LiveTested: checkLive,
	})
	result.ScoringResult = sc
	result.Score = sc.LegacyScore()

	e.finalizeSuccess(result)
	return result, nil
}

func (e *Engine) runSchema(card *agentcard.AgentCard, result *report.ValidationResult) {
	res := e.schema.Validate(card)
	result.Errors = append(result.Errors, res.Errors...)
	result.Warnings = append(result.Warnings, res.Warnings...)
	e.log.WithFields(logrus.Fields{
		"errors":   len(res.Errors),
		"warnings": len(res.Warnings),
		"duration": res.DurationMS,
	}).Debug("schema validation complete")
}

func (e *Engine) runCompat(card *agentcard.AgentCard, result *report.ValidationResult) {
	res := e.compat.Analyze(card)
	result.VersionInfo = report.VersionInfo{
		DetectedVersion: res.DetectedVersion,
		Strictness:      string(e.config.Mode),
		Compatibility: report.CompatibilitySummary{
			Compatible: res.Compatible,
			Mismatches: res.Mismatches,
		},
	}
	for _, mm := range res.Mismatches {
		// Feature/version mismatches only block in strict mode.
		if e.config.Mode == ModeStrict {
			result.AddError("VERSION_MISMATCH", mm.Description, "protocolVersion")
		} else {
			result.AddWarning("VERSION_MISMATCH", mm.Description, "protocolVersion")
		}
	}
	for _, s := range res.Suggestions {
		result.AddSuggestion("RAISE_PROTOCOL_VERSION", s, "compatibility")
	}
}

func (e *Engine) runSignatures(ctx context.Context, card *agentcard.AgentCard, result *report.ValidationResult) {
	if e.config.SkipSignatureVerification {
		result.Signatures = crypto.SkippedResult(crypto.SkipDisabled)
		return
	}

	sigResult, err := e.verifier.VerifyAgentCardSignatures(ctx, card)
	if err != nil {
		result.AddError("VERIFICATION_ERROR", "failed to execute signature verification: "+err.Error(), "signatures")
		result.Signatures = crypto.SkippedResult(crypto.SkipDisabled)
		return
	}
	result.Signatures = sigResult

	if sigResult.Skipped == crypto.SkipNoSignatures {
		result.AddWarning("NO_SIGNATURES", "Agent Card is unsigned", "signatures")
		return
	}

	for _, sig := range sigResult.Signatures {
		if sig.Valid {
			e.checkIssuer(sig, result)
			continue
		}
		// A signature that fails verification always blocks: a card caught
		// lying is worse than an unsigned one.
		result.AddError("SIGNATURE_VERIFICATION_FAILED", "signature verification failed: "+sig.Error, "signatures")
	}
}

// checkIssuer flags valid signatures from issuers outside the trusted set.
// Informational only: an unknown issuer never affects the score.
func (e *Engine) checkIssuer(sig crypto.SignatureResult, result *report.ValidationResult) {
	if len(e.config.TrustedIssuers) == 0 {
		return
	}
	if e.issuers.IsTrusted(sig.JWKSUri) {
		return
	}
	result.AddSuggestion("UNTRUSTED_ISSUER",
		"signature is valid but its JWKS issuer "+sig.JWKSUri+" is not in the trusted issuer list", "trust")
}

func (e *Engine) runProbes(ctx context.Context, card *agentcard.AgentCard, result *report.ValidationResult) {
	probes := e.prober.ProbeCard(ctx, card)
	result.LiveTest = probes

	for _, p := range probes {
		for _, w := range p.Warnings {
			result.AddWarning(w.Code, probeIssueMessage(p, w), "url")
		}
		for _, pe := range p.Errors {
			// Primary interface failures block; alternates degrade to warnings.
			if p.Primary {
				result.AddError(pe.Code, probeIssueMessage(p, pe), "url")
			} else {
				result.AddWarning(pe.Code, probeIssueMessage(p, pe), "additionalInterfaces")
			}
		}
	}
}

func probeIssueMessage(p probe.LiveProbeResult, e probe.ProbeError) string {
	return string(p.Transport) + " " + p.Endpoint + ": " + e.Message
}

// finalizeSuccess applies the mode's severity policy to the accumulated
// findings. AddError already flips Success; the modes adjust from there.
func (e *Engine) finalizeSuccess(result *report.ValidationResult) {
	switch e.config.Mode {
	case ModeStrict:
		if len(result.Warnings) > 0 {
			result.Success = false
		}
	case ModeConservative:
		// Fixable errors are advisory in conservative mode.
		blocking := false
		for _, issue := range result.Errors {
			if !issue.Fixable {
				blocking = true
				break
			}
		}
		result.Success = !blocking
	}
}
