// Command regionchat talks to the region assistant from a terminal, using the
// same session controller and completion client as the HTTP backend.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BuysCode/giovannibot/backend/internal/config"
	"github.com/BuysCode/giovannibot/backend/internal/model/region"
	"github.com/BuysCode/giovannibot/backend/internal/service/ai"
	"github.com/BuysCode/giovannibot/backend/internal/service/chat"
)

var (
	verbose bool
	noColor bool
)

var rootCmd = &cobra.Command{
	Use:   "regionchat",
	Short: "Chat with Giovanni Bot about an Italian region",
	Long: `regionchat runs a Giovanni Bot session in the terminal.

  regionchat chat toscana                 Start an interactive session
  regionchat ask sicilia "Qual a capital?" Ask a single question
  regionchat regions                      List available regions`,
	SilenceUsage: true,
}

var chatCmd = &cobra.Command{
	Use:   "chat [region]",
	Short: "Start an interactive session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := newSession(cmd.Context(), firstArg(args))
		if err != nil {
			return err
		}
		defer cleanup()

		return runREPL(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), session, newRenderer(noColor))
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <region> <question>",
	Short: "Ask a single question and print the reply",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, cleanup, err := newSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer cleanup()

		r := newRenderer(noColor)
		question := strings.Join(args[1:], " ")
		done, accepted := session.Submit(cmd.Context(), question)
		if !accepted {
			return fmt.Errorf("empty question")
		}
		<-done

		latest, _ := session.Snapshot().Latest()
		fmt.Fprintln(cmd.OutOrStdout(), r.turn(latest))
		return nil
	},
}

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List available regions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newRenderer(noColor)
		for _, item := range region.Seed() {
			fmt.Fprintln(cmd.OutOrStdout(), r.regionLine(item))
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log completion diagnostics at debug level")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable terminal styling")
	rootCmd.AddCommand(chatCmd, askCmd, regionsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newSession wires a standalone session the same way cmd/api does.
func newSession(ctx context.Context, regionName string) (*chat.Session, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := cfg.Log
	logCfg.Format = "console"
	logCfg.Level = "warn"
	if verbose {
		logCfg.Level = "debug"
	}
	logger, err := logCfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}

	aiService, err := ai.NewService(ctx, cfg.AI, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, fmt.Errorf("failed to initialize completion client: %w", err)
	}

	session := chat.NewSession("terminal", regionName, aiService,
		chat.WithLogger(logger.Named("session")),
		chat.WithDefaultRegion(cfg.Chat.DefaultRegion),
	)
	logger.Debug("terminal session ready", zap.String("topic", session.Topic()), zap.String("provider", aiService.Provider()))

	cleanup := func() {
		session.Close()
		_ = logger.Sync()
	}
	return session, cleanup, nil
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
