// Package cli implements the pricematch command line tool.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/macrolens/productmatch/config"
	"github.com/macrolens/productmatch/internal/bootstrap"
	"github.com/macrolens/productmatch/internal/domain"
	"github.com/spf13/cobra"
)

// options are the persistent flags shared by every subcommand
type options struct {
	configPath string
	offline    bool
}

// NewRootCmd builds the pricematch command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "pricematch",
		Short: "Match a shopping query against scraped product candidates",
		Long: `pricematch runs the product matching engine locally.

It reads candidate listings as JSON, picks the best product for a query or one
product per nearby store, and explains how queries and sizes are interpreted.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a config file (default: config.yaml in the search paths)")
	cmd.PersistentFlags().BoolVar(&opts.offline, "offline", false, "disable remote model and embedding providers; rule-based extraction stays on")

	cmd.AddCommand(newMatchCmd(opts))
	cmd.AddCommand(newStoresCmd(opts))
	cmd.AddCommand(newClassifyCmd(opts))
	cmd.AddCommand(newUnitsCmd())

	return cmd
}

// loadApp reads configuration and wires the matching service
func (o *options) loadApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.LoadFrom(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.offline {
		if cfg.LLM.Provider != "rules" {
			cfg.LLM.Provider = "none"
		}
		cfg.Embedding.Provider = "none"
	}
	return bootstrap.New(cmd.Context(), cfg)
}

// readCandidates decodes a JSON array of candidates from a file, or stdin for "-"
func readCandidates(cmd *cobra.Command, path string) ([]domain.Candidate, error) {
	var r io.Reader
	if path == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open candidates: %w", err)
		}
		defer f.Close()
		r = f
	}

	var candidates []domain.Candidate
	if err := json.NewDecoder(r).Decode(&candidates); err != nil {
		return nil, fmt.Errorf("decode candidates: %w", err)
	}
	return candidates, nil
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
