package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/arbiter/internal/demo"
	"github.com/aretw0/arbiter/pkg/invoke"
	"github.com/spf13/cobra"
)

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Play the demo game between in-process bots",
	RunE: func(cmd *cobra.Command, args []string) error {
		seed, _ := cmd.Flags().GetUint64("seed")
		if !cmd.Flags().Changed("seed") {
			seed = uint64(time.Now().UnixNano())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStores()
		if err != nil {
			return err
		}
		defer st.close()

		t := newTelemetry()
		orch, err := newOrchestrator(t, st.results)
		if err != nil {
			return err
		}

		participants := make(map[string]invoke.Target)
		for _, b := range demo.Bots(seed) {
			participants[b.Name()] = b.Target()
		}

		scores, err := orch.Play(ctx, participants)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Final scores:")
		printScores(cmd.OutOrStdout(), scores)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(localCmd)
	localCmd.Flags().Uint64("seed", 0, "Seed for the random bots (default: time based)")
}
