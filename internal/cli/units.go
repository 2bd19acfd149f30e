package cli

import (
	"strings"

	"github.com/macrolens/productmatch/internal/usecase"
	"github.com/spf13/cobra"
)

func newUnitsCmd() *cobra.Command {
	var price float64

	cmd := &cobra.Command{
		Use:     "units <text>",
		Short:   "Parse the volume in a product title",
		Example: `  pricematch units "Great Value Whole Milk, 1 gal" --price 3.12`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.Join(args, " ")
			liters := usecase.ParseVolumeLiters(text)

			var pricePerLiter *float64
			if cmd.Flags().Changed("price") {
				pricePerLiter = usecase.PricePerLiter(&price, liters)
			}

			return writeJSON(cmd, struct {
				Text          string   `json:"text"`
				Liters        *float64 `json:"liters"`
				PricePerLiter *float64 `json:"pricePerLiter,omitempty"`
			}{
				Text:          text,
				Liters:        liters,
				PricePerLiter: pricePerLiter,
			})
		},
	}

	cmd.Flags().Float64Var(&price, "price", 0, "price used to compute price per liter")

	return cmd
}
