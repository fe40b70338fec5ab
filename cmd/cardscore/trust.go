package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/spf13/cobra"

	"github.com/capiscio/cardscore/internal/httpclient"
	"github.com/capiscio/cardscore/pkg/trust"
)

var trustPinKeys bool

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage trusted signature issuers",
	Long: `Manage the local store of trusted JWKS issuers.

Signatures from issuers outside this store still verify, but the validator
flags them so operators can review where an agent's keys come from. Pinned
keys allow repeat validations without refetching the issuer's JWKS.

Location: ~/.cardscore/trust/ (or $CARDSCORE_TRUST_PATH)`,
}

var trustAddCmd = &cobra.Command{
	Use:   "add [jwks-uri]",
	Short: "Trust an issuer JWKS URI",
	Long: `Trust an issuer by its JWKS URI.

Examples:
  # Trust an issuer by URI
  cardscore trust add https://agents.example.com/.well-known/jwks.json

  # Trust an issuer and pin its current keys for offline use
  cardscore trust add --pin https://agents.example.com/.well-known/jwks.json

  # Pin keys from stdin (pipe from curl)
  curl -s https://agents.example.com/.well-known/jwks.json | cardscore trust add --pin -`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := trust.NewFileStore("")
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}

		uri := args[0]
		if uri == "-" {
			if !trustPinKeys {
				return fmt.Errorf("reading from stdin requires --pin")
			}
			return pinFromStdin(store)
		}

		if err := store.AddIssuer(uri); err != nil {
			return fmt.Errorf("failed to add issuer: %w", err)
		}
		fmt.Printf("✅ Trusted issuer: %s\n", uri)

		if trustPinKeys {
			return pinFromURI(store, uri)
		}
		return nil
	},
}

var trustRemoveCmd = &cobra.Command{
	Use:   "remove [jwks-uri]",
	Short: "Remove a trusted issuer and its pinned keys",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		store, err := trust.NewFileStore("")
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}
		if err := store.RemoveIssuer(args[0]); err != nil {
			return fmt.Errorf("failed to remove issuer: %w", err)
		}
		fmt.Printf("Removed issuer: %s\n", args[0])
		return nil
	},
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trusted issuers",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := trust.NewFileStore("")
		if err != nil {
			return fmt.Errorf("failed to open trust store: %w", err)
		}
		issuers, err := store.ListIssuers()
		if err != nil {
			return fmt.Errorf("failed to list issuers: %w", err)
		}
		if len(issuers) == 0 {
			fmt.Println("No trusted issuers")
			return nil
		}
		for _, issuer := range issuers {
			fmt.Println(issuer)
		}
		return nil
	},
}

func pinFromURI(store *trust.FileStore, uri string) error {
	client := httpclient.New(httpclient.WithTimeout(10 * time.Second))
	resp, herr := client.Get(context.Background(), uri, nil)
	if herr != nil {
		return fmt.Errorf("failed to fetch JWKS: %s", herr.Message)
	}
	return pinJWKSData(store, uri, resp.Body)
}

func pinFromStdin(store *trust.FileStore) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	return pinJWKSData(store, "stdin", data)
}

func pinJWKSData(store *trust.FileStore, uri string, data []byte) error {
	var jwks jose.JSONWebKeySet
	if err := json.Unmarshal(data, &jwks); err != nil {
		return fmt.Errorf("failed to parse JWKS: %w", err)
	}
	if len(jwks.Keys) == 0 {
		return fmt.Errorf("JWKS contains no keys")
	}
	if err := store.PinJWKS(uri, &jwks); err != nil {
		return err
	}
	fmt.Printf("Pinned %d key(s)\n", len(jwks.Keys))
	return nil
}

func init() {
	trustAddCmd.Flags().BoolVar(&trustPinKeys, "pin", false, "Also pin the issuer's current keys")
	trustCmd.AddCommand(trustAddCmd)
	trustCmd.AddCommand(trustRemoveCmd)
	trustCmd.AddCommand(trustListCmd)
	rootCmd.AddCommand(trustCmd)
}
