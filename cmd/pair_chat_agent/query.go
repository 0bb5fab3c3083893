package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "查询余额与累计收益",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, err := setup()
		if err != nil {
			return err
		}
		b, err := client.Balance(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(b)
	},
}

var giftsCmd = &cobra.Command{
	Use:   "gifts",
	Short: "列出礼物目录",
	RunE: func(cmd *cobra.Command, _ []string) error {
		_, client, err := setup()
		if err != nil {
			return err
		}
		gifts, err := client.Gifts(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(gifts)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
