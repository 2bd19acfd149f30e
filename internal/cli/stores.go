package cli

import (
	"github.com/macrolens/productmatch/internal/domain"
	"github.com/spf13/cobra"
)

func newStoresCmd(opts *options) *cobra.Command {
	var (
		query          string
		candidatesPath string
		stores         []string
	)

	cmd := &cobra.Command{
		Use:     "stores",
		Short:   "Select one candidate per nearby store",
		Example: `  pricematch stores -q "lucerne whole milk 1 gallon" -c listings.json --store "Walmart Supercenter" --store Safeway`,
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := readCandidates(cmd, candidatesPath)
			if err != nil {
				return err
			}

			app, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			resp, err := app.Service.MatchForStores(cmd.Context(), &domain.StoreMatchRequest{
				Query:        query,
				Candidates:   candidates,
				NearbyStores: stores,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "shopping query")
	cmd.Flags().StringVarP(&candidatesPath, "candidates", "c", "-", "JSON array of candidates, - for stdin")
	cmd.Flags().StringArrayVar(&stores, "store", nil, "nearby store name (repeatable)")
	_ = cmd.MarkFlagRequired("query")

	return cmd
}
