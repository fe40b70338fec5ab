package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/agentcard"
	"github.com/capiscio/cardscore/pkg/config"
	"github.com/capiscio/cardscore/pkg/report"
	"github.com/capiscio/cardscore/pkg/trust"
	"github.com/capiscio/cardscore/pkg/validator"
)

var (
	flagJSON            bool
	flagTestLive        bool
	flagStrict          bool
	flagConservative    bool
	flagSkipSignature   bool
	flagSchemaOnly      bool
	flagAllowPrivateIPs bool
	flagTimeout         time.Duration
	flagConfig          string
	flagTrustedIssuers  []string
	flagVerbose         bool
	flagErrorsOnly      bool
)

func init() {
	validateCmd.Flags().BoolVar(&flagJSON, "json", false, "Output results as JSON")
	validateCmd.Flags().BoolVar(&flagTestLive, "test-live", false, "Probe the declared transport endpoints")
	validateCmd.Flags().BoolVar(&flagStrict, "strict", false, "Enable strict validation mode")
	validateCmd.Flags().BoolVar(&flagConservative, "conservative", false, "Enable conservative validation mode")
	validateCmd.Flags().BoolVar(&flagSkipSignature, "skip-signature", false, "Skip JWS signature verification")
	validateCmd.Flags().BoolVar(&flagSchemaOnly, "schema-only", false, "Validate schema only, skip signature and endpoint checks")
	validateCmd.Flags().BoolVar(&flagAllowPrivateIPs, "allow-private-ips", false, "Allow URLs pointing at private or loopback hosts")
	validateCmd.Flags().DurationVar(&flagTimeout, "timeout", 10*time.Second, "Request timeout")
	validateCmd.Flags().StringVar(&flagConfig, "config", "", "Path to a YAML configuration file")
	validateCmd.Flags().StringSliceVar(&flagTrustedIssuers, "trusted-issuers", nil, "Trusted JWKS issuer URIs or hostnames")
	validateCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	validateCmd.Flags().BoolVar(&flagErrorsOnly, "errors-only", false, "Show only errors and warnings")

	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate [file-or-url]",
	Short: "Validate and score an Agent Card",
	Long: `Validate an Agent Card from a local file or URL. Checks structure and
version compatibility, verifies signatures, optionally probes the declared
transports, and reports a three-dimensional score.`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if flagStrict && flagConservative {
			return fmt.Errorf("--strict and --conservative are mutually exclusive")
		}

		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.WarnLevel)
		if flagVerbose {
			logger.SetLevel(logrus.DebugLevel)
		}

		cardData, err := loadCardData(args[0])
		if err != nil {
			return err
		}

		card, err := agentcard.Parse(cardData)
		if err != nil {
			return err
		}

		engineConfig, err := buildEngineConfig(logger)
		if err != nil {
			return err
		}

		engine := validator.NewEngine(engineConfig)
		checkLive := flagTestLive && !flagSchemaOnly
		result, err := engine.Validate(context.Background(), card, checkLive)
		if err != nil {
			return fmt.Errorf("validation engine error: %w", err)
		}

		if flagJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(result); err != nil {
				return err
			}
		} else {
			printText(result, card)
		}

		if !result.Success {
			os.Exit(1)
		}
		return nil
	},
}

// buildEngineConfig layers flags over the optional config file.
func buildEngineConfig(logger *logrus.Logger) (*validator.EngineConfig, error) {
	fileCfg := config.Default()
	if flagConfig != "" {
		var err error
		fileCfg, err = config.Load(flagConfig, logger)
		if err != nil {
			return nil, err
		}
	}

	ec := fileCfg.EngineConfig(logger)
	if flagStrict {
		ec.Mode = validator.ModeStrict
	}
	if flagConservative {
		ec.Mode = validator.ModeConservative
	}
	if flagSkipSignature {
		ec.SkipSignatureVerification = true
	}
	if flagSchemaOnly {
		ec.SchemaOnly = true
	}
	if flagAllowPrivateIPs {
		ec.AllowPrivateIPs = true
	}
	if flagTimeout > 0 {
		ec.HTTPTimeout = flagTimeout
	}
	if len(flagTrustedIssuers) > 0 {
		ec.TrustedIssuers = flagTrustedIssuers
	}
	attachTrustStore(ec, logger)
	return ec, nil
}

// attachTrustStore wires the local trust store into the engine when one has
// been created via `cardscore trust`. Stored issuers join the trusted list and
// pinned keys satisfy JWKS lookups without refetching.
func attachTrustStore(ec *validator.EngineConfig, logger *logrus.Logger) {
	dir := trust.DefaultTrustDir()
	if _, err := os.Stat(dir); err != nil {
		return
	}
	store, err := trust.NewFileStore(dir)
	if err != nil {
		logger.WithError(err).Warn("failed to open trust store")
		return
	}
	issuers, err := store.ListIssuers()
	if err != nil {
		logger.WithError(err).Warn("failed to read trusted issuers")
		return
	}
	ec.TrustedIssuers = append(ec.TrustedIssuers, issuers...)
	ec.TrustStore = store
}

func loadCardData(input string) ([]byte, error) {
	if strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://") {
		client := httpclient.New(httpclient.WithTimeout(flagTimeout))
		resp, herr := client.Get(context.Background(), input, nil)
		if herr != nil {
			return nil, fmt.Errorf("failed to fetch URL: %s", herr.Message)
		}
		return resp.Body, nil
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func printText(result *report.ValidationResult, card *agentcard.AgentCard) {
	if !flagErrorsOnly {
		if result.Success {
			fmt.Println("✅ A2A AGENT VALIDATION PASSED")
		} else {
			fmt.Println("❌ A2A AGENT VALIDATION FAILED")
		}
		fmt.Printf("Score: %.0f/100\n", result.Score)
		fmt.Printf("Protocol version: %s\n", result.VersionInfo.DetectedVersion)

		if sr := result.ScoringResult; sr != nil {
			fmt.Printf("Compliance: %.0f/100 (%s)\n", sr.Compliance.Total, sr.Compliance.Rating)
			fmt.Printf("Trust: %.0f/100 (%s, confidence ×%.1f)\n",
				sr.Trust.Total, sr.Trust.Rating, sr.Trust.ConfidenceMultiplier)
			if sr.Availability.Tested && sr.Availability.Total != nil {
				fmt.Printf("Availability: %.0f/100 (%s)\n", *sr.Availability.Total, sr.Availability.Rating)
			} else {
				fmt.Println("Availability: not tested")
			}
		}
	}

	issues := make([]report.Issue, 0, len(result.Errors)+len(result.Warnings))
	issues = append(issues, result.Errors...)
	issues = append(issues, result.Warnings...)
	if len(issues) > 0 {
		fmt.Println("\nISSUES FOUND:")
		for _, issue := range issues {
			icon := "⚠️"
			if issue.Severity == "error" {
				icon = "❌"
			}
			fmt.Printf("%s [%s] %s: %s\n", icon, issue.Code, issue.Severity, issue.Message)
		}
	}

	if !flagErrorsOnly && result.ScoringResult != nil {
		fmt.Println()
		for _, line := range result.ScoringResult.Recommendation {
			fmt.Println(line)
		}
	}

	if !flagErrorsOnly && card.Name != "" && result.Success && len(issues) == 0 {
		fmt.Printf("\nPerfect! %s passes all validations\n", card.Name)
	}
}
