// Package cli holds the bizplanner command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bizplanner/internal/config"
	"bizplanner/internal/logging"
)

type ctxKey string

const configKey ctxKey = "config"

// Execute builds the root command and runs it.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd constructs the root command. Configuration is resolved once
// before any subcommand runs and stashed in the command context.
func NewRootCmd() *cobra.Command {
	var (
		cfgPath string
		restore func()
	)

	cmd := &cobra.Command{
		Use:           "bizplanner",
		Short:         "Business plan questionnaire server with live answer preview",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if cfgPath != "" {
				v.SetConfigFile(cfgPath)
			}
			if err := config.Load(v); err != nil {
				return err
			}
			cfg := config.FromViper(v)
			if err := config.Check(cfg); err != nil {
				return err
			}

			var err error
			restore, err = logging.Setup(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey, cfg))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if restore != nil {
				restore()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (yaml)")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newRenderCmd())
	cmd.AddCommand(newSeedCmd())

	cmd.Run = func(cmd *cobra.Command, args []string) { _ = cmd.Help() }

	return cmd
}

func getConfig(cmd *cobra.Command) *config.Config {
	v := cmd.Context().Value(configKey)
	if v == nil {
		fmt.Fprintln(os.Stderr, "internal error: config not loaded")
		os.Exit(1)
	}
	return v.(*config.Config)
}
