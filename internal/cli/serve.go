package cli

import (
	"github.com/spf13/cobra"

	"github.com/Checkmk/checkmk-sub072/internal/app"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the discovery daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := opts.build(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer func() { _ = c.Logger.Sync() }()
			return app.New(c).Run(cmd.Context())
		},
	}
}
