package main

import (
	"encoding/json"
	"os"

	"github.com/raykavin/backsim"
	"github.com/raykavin/backsim/pkg/core"
	"github.com/raykavin/backsim/pkg/exchange"
	"github.com/raykavin/backsim/pkg/exchange/binance"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func buildAssetsCmd() *cobra.Command {
	var output string

	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Write the Binance spot asset list in the assets_file format",
		RunE: func(cmd *cobra.Command, args []string) error {
			spot, err := binance.NewExchange(cmd.Context(), backsim.DefaultLog, binance.Config{UseTestnet: useTestnet})
			if err != nil {
				return err
			}

			assets, err := spot.Assets(cmd.Context())
			if err != nil {
				return err
			}

			records := lo.SliceToMap(assets, func(asset core.Asset) (string, exchange.AssetRecord) {
				return asset.Symbol, exchange.AssetRecord{Name: asset.Name, MinSize: asset.LotSize.String()}
			})

			out := cmd.OutOrStdout()
			if output != "" {
				file, err := os.Create(output)
				if err != nil {
					return err
				}
				defer file.Close()
				out = file
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		},
	}

	assetsCmd.Flags().StringVarP(&output, "output", "o", "", "Output file path, stdout when empty")
	assetsCmd.Flags().BoolVar(&useTestnet, "testnet", false, "Use the Binance testnet")

	return assetsCmd
}
