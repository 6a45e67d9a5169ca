package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results [run-id]",
	Short: "List stored game results, or show one",
	Long:  `Reads results from the configured Redis store. Without Redis, results live only as long as the process that played the game.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		out := cmd.OutOrStdout()
		if len(args) == 0 {
			runs, err := st.results.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range runs {
				fmt.Fprintln(out, id)
			}
			return nil
		}

		result, err := st.results.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}
