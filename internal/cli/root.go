// Package cli implements the cmk-discovery command line.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Checkmk/checkmk-sub072/internal/app"
	"github.com/Checkmk/checkmk-sub072/internal/config"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/version"
)

type rootOptions struct {
	logLevel  string
	rulesFile string
	jsonOut   bool
}

// NewRootCommand builds the command tree. Configuration comes from CMK_*
// environment variables; flags override a few of them.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "cmk-discovery",
		Short: "Service discovery reconciliation for monitored hosts",
		Long: `cmk-discovery reconciles the services and host labels discovered on
monitored hosts with the persisted autochecks, either on demand or as a
daemon with an HTTP API and periodic rediscovery.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetVersionTemplate("cmk-discovery {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override CMK_LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.rulesFile, "rules", "", "override CMK_RULES_FILE")

	root.AddCommand(
		newServeCommand(opts),
		newDiscoverCommand(opts),
		newShowCommand(opts),
		newPreviewCommand(opts),
	)
	return root
}

// Execute runs the command line with ctx.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (o *rootOptions) config() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.rulesFile != "" {
		cfg.RulesFile = o.rulesFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// build loads the configuration and wires the components. The caller closes
// the returned components.
func (o *rootOptions) build(ctx context.Context, quietDefault bool) (*app.Components, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}

	var log logger.Logger
	switch {
	case quietDefault && o.logLevel == "":
		// one-shot commands print results; only problems are logged
		log = logger.New("warn", cfg.PrettyLog)
	default:
		log = logger.New(cfg.LogLevel, cfg.PrettyLog)
	}

	c, err := app.Build(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return c, nil
}
