package cli

import (
	"fmt"
	"strconv"

	"github.com/macrolens/productmatch/internal/domain"
	"github.com/spf13/cobra"
)

func newMatchCmd(opts *options) *cobra.Command {
	var (
		query          string
		candidatesPath string
		profile        string
		weights        map[string]string
		confThreshold  float64
		tieDelta       float64
	)

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Select the best candidate for a query",
		Example: `  pricematch match --query "whole milk 1 gallon" --candidates listings.json
  cat listings.json | pricematch match -q "tide pods" -c - --weights lexical=0.6,semantic=0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := readCandidates(cmd, candidatesPath)
			if err != nil {
				return err
			}

			req := &domain.MatchRequest{
				Query:      query,
				Candidates: candidates,
				Profile:    profile,
			}
			if len(weights) > 0 {
				req.Weights, err = parseWeights(weights)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("conf-threshold") {
				req.ConfThreshold = &confThreshold
			}
			if cmd.Flags().Changed("tie-delta") {
				req.TieDelta = &tieDelta
			}

			app, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Service.Match(cmd.Context(), req)
			if err != nil {
				return err
			}
			return writeJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "shopping query")
	cmd.Flags().StringVarP(&candidatesPath, "candidates", "c", "-", "JSON array of candidates, - for stdin")
	cmd.Flags().StringVar(&profile, "profile", "", "named matching profile")
	cmd.Flags().StringToStringVar(&weights, "weights", nil, "weight overrides, e.g. lexical=0.6,brand=0.1")
	cmd.Flags().Float64Var(&confThreshold, "conf-threshold", 0, "override the confidence threshold")
	cmd.Flags().Float64Var(&tieDelta, "tie-delta", 0, "override the tie window")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}

func parseWeights(raw map[string]string) (map[string]float64, error) {
	weights := make(map[string]float64, len(raw))
	for key, value := range raw {
		w, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: weight %s=%q is not a number", domain.ErrInvalidWeights, key, value)
		}
		weights[key] = w
	}
	return weights, nil
}
