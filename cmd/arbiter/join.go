package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/aretw0/arbiter/internal/demo"
	"github.com/aretw0/arbiter/pkg/session"
	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a game server with a bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		for flag, dst := range map[string]*string{
			"address":  &cfg.Client.Address,
			"login":    &cfg.Client.Login,
			"password": &cfg.Client.Password,
		} {
			if cmd.Flags().Changed(flag) {
				*dst, _ = cmd.Flags().GetString(flag)
			}
		}
		if cfg.Client.Login == "" {
			return fmt.Errorf("a login is required (--login or client.login)")
		}
		strategyName, _ := cmd.Flags().GetString("strategy")
		delay, _ := cmd.Flags().GetDuration("delay")

		strategy, err := parseStrategy(strategyName)
		if err != nil {
			return err
		}
		bot := demo.NewBot(cfg.Client.Login, strategy).Slow(delay)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		auth := &session.PasswordAuth{User: cfg.Client.Login, Password: cfg.Client.Password, Logger: logger}
		client, err := session.Dial(ctx, cfg.Client.Address, auth, demo.Contract, bot.Target(),
			session.WithClientAuthTimeout(cfg.Client.AuthTimeout),
			session.WithClientLogger(logger),
		)
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Joined %s as %s\n", cfg.Client.Address, cfg.Client.Login)
		if err := client.Wait(ctx); err != nil {
			return err
		}

		if score, ok := bot.Final(); ok {
			fmt.Fprintf(out, "Game over: %d rounds won, final score %g\n", bot.Wins(), score)
		} else {
			fmt.Fprintln(out, "Disconnected before the end of the game")
		}
		return nil
	},
}

// parseStrategy reads "middle", "random", "random:<seed>" or "fixed:<n>".
func parseStrategy(s string) (demo.Strategy, error) {
	name, arg, hasArg := strings.Cut(s, ":")
	switch name {
	case "middle":
		return demo.Middle(), nil
	case "random":
		seed := uint64(time.Now().UnixNano())
		if hasArg {
			v, err := strconv.ParseUint(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid seed %q: %w", arg, err)
			}
			seed = v
		}
		return demo.Random(seed), nil
	case "fixed":
		v, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid fixed guess %q: %w", arg, err)
		}
		return demo.Fixed(v), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", s)
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().String("address", "", "Server address (overrides client.address)")
	joinCmd.Flags().String("login", "", "Login (overrides client.login)")
	joinCmd.Flags().String("password", "", "Password (overrides client.password)")
	joinCmd.Flags().String("strategy", "middle", "Bot strategy: middle, random[:seed], fixed:<n>")
	joinCmd.Flags().Duration("delay", 0, "Think time before every guess")
}
