package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/scheduler"
)

type discoverOptions struct {
	mode string
	all  bool
}

func newDiscoverCommand(opts *rootOptions) *cobra.Command {
	dopts := &discoverOptions{}

	cmd := &cobra.Command{
		Use:   "discover [host...]",
		Short: "Rediscover hosts and update their autochecks",
		Long: `Rediscover the given hosts, or every known host with --all. Without
--mode the mode configured in the rules file is used. A cluster node is
rediscovered together with the other nodes of its cluster.`,
		Example: `  cmk-discovery discover web01 --mode fixall
  cmk-discovery discover --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dopts.all == (len(args) > 0) {
				return fmt.Errorf("either name hosts or use --all")
			}
			var mode discovery.Mode
			if dopts.mode != "" {
				m, err := discovery.ParseMode(dopts.mode)
				if err != nil {
					return err
				}
				mode = m
			}

			c, err := opts.build(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			report, err := runDiscover(cmd.Context(), c.Rediscoverer, args, mode, dopts.all)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), outcomeViews(report.Outcomes))
			}
			printOutcomes(cmd.OutOrStdout(), report)
			if report.Failed > 0 {
				return fmt.Errorf("%d of %d hosts failed", report.Failed, report.Hosts)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dopts.mode, "mode", "m", "", "discovery mode: new, remove, fixall, refresh")
	cmd.Flags().BoolVar(&dopts.all, "all", false, "rediscover every known host")
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	return cmd
}

func runDiscover(ctx context.Context, r *scheduler.Rediscoverer, hosts []string, mode discovery.Mode, all bool) (scheduler.Report, error) {
	if all {
		if mode != "" {
			return scheduler.Report{}, fmt.Errorf("--mode cannot be combined with --all, set the mode in the rules file")
		}
		return r.Run(ctx)
	}
	return r.RunHosts(ctx, hosts, mode)
}

func printOutcomes(w io.Writer, report scheduler.Report) {
	tw := newTable(w)
	fmt.Fprintln(tw, "HOST\tMODE\tNEW\tKEPT\tREMOVED\tHOST LABELS\tERROR")
	for _, o := range report.Outcomes {
		if o.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\t%v\n", o.Host, o.Err)
			continue
		}
		c := o.Result.Counts
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d/%d\t\n",
			o.Host, o.Result.Mode, c.SelfNew, c.SelfKept, c.SelfRemoved, c.SelfNewHostLabels, c.SelfTotalHostLabels)
	}
	_ = tw.Flush()
}
