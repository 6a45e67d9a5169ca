package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/aretw0/arbiter/internal/demo"
	"github.com/aretw0/arbiter/pkg/session"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Wait for remote players, then run one game",
	Long: `Listens for participants, authenticates them against the configured
credentials, and plays the demo game with whoever joined before the connection
deadline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Server.Listen, _ = cmd.Flags().GetString("listen")
		}
		if cmd.Flags().Changed("players") {
			cfg.Server.Players, _ = cmd.Flags().GetInt("players")
		}
		linger, _ := cmd.Flags().GetBool("linger")

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

		stopAdmin := startAdmin(t, st.results)
		defer stopAdmin()

		opts := []session.Option{
			session.WithPlayers(cfg.Server.Players),
			session.WithConnectDeadline(cfg.Server.ConnectDeadline),
			session.WithAuthTimeout(cfg.Server.AuthTimeout),
			session.WithLoginObserver(t.metrics),
			session.WithLogger(logger),
		}
		if cfg.Server.AcceptRate > 0 {
			burst := max(cfg.Server.AcceptBurst, 1)
			opts = append(opts, session.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.Server.AcceptRate), burst)))
		}
		if st.locker != nil {
			opts = append(opts, session.WithLocker(st.locker, 0))
		}

		auth := &session.PasswordAuth{Store: st.credentials, Logger: logger}
		srv, err := session.Listen(cfg.Server.Listen, demo.Contract, orch.Timeouts(), auth, opts...)
		if err != nil {
			return err
		}
		defer srv.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Waiting for %d players on %s\n", cfg.Server.Players, srv.Addr())
		players := srv.WaitForPlayers(ctx)
		if len(players) == 0 {
			return fmt.Errorf("no player joined before the deadline")
		}

		scores, err := orch.PlayChannels(ctx, players)
		if err != nil {
			return err
		}
		_ = srv.Close()

		fmt.Fprintln(out, "Final scores:")
		printScores(out, scores)

		if linger && cfg.Admin.Listen != "" {
			fmt.Fprintf(out, "Admin endpoint on %s, press Ctrl+C to exit\n", cfg.Admin.Listen)
			<-ctx.Done()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", "", "Address to accept players on (overrides server.listen)")
	serveCmd.Flags().Int("players", 0, "Number of players to wait for (overrides server.players)")
	serveCmd.Flags().Bool("linger", false, "Keep the admin endpoint up after the game")
}
