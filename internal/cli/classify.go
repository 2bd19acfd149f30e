package cli

import (
	"strings"

	"github.com/macrolens/productmatch/internal/usecase"
	"github.com/spf13/cobra"
)

func newClassifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <query>",
		Short: "Show whether a query is treated as general or specific",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			query := strings.Join(args, " ")
			return writeJSON(cmd, struct {
				Query      string `json:"query"`
				Normalized string `json:"normalized"`
				usecase.Classification
			}{
				Query:          query,
				Normalized:     usecase.NormalizeText(query),
				Classification: app.Service.Classify(query),
			})
		},
	}
}
