package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Checkmk/checkmk-sub072/internal/discovery"
	"github.com/Checkmk/checkmk-sub072/internal/domain"
)

func newShowCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <host>",
		Short: "Show the persisted autochecks of a host",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.build(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			host := args[0]
			services, err := c.Engine.Autochecks(host)
			if err != nil {
				return err
			}
			labels, err := c.HostLabels.Load(host)
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), showView{
					Host:       host,
					Services:   serviceViews(host, services, c.Engine),
					HostLabels: hostLabelStrings(labels),
				})
			}
			printServices(cmd.OutOrStdout(), host, services, c.Engine)
			printHostLabels(cmd.OutOrStdout(), labels)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	return cmd
}

func newPreviewCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <host>",
		Short: "Show what a discovery would change without writing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.build(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			p, err := c.Engine.Preview(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), previewViewOf(p))
			}
			printPreview(cmd.OutOrStdout(), p)
			printHostLabels(cmd.OutOrStdout(), p.HostLabels)
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "print JSON")
	return cmd
}

func printServices(w io.Writer, host string, services []domain.Service, engine *discovery.Engine) {
	tw := newTable(w)
	fmt.Fprintln(tw, "PLUGIN\tITEM\tDESCRIPTION\tPARAMETERS\tLABELS")
	for _, s := range services {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			s.CheckPluginName, itemText(s.Item), s.Description,
			engine.Resolve(host, s), labelText(domain.ServiceLabelStrings(s.ServiceLabels)))
	}
	_ = tw.Flush()
}

func printPreview(w io.Writer, p *discovery.Preview) {
	tw := newTable(w)
	fmt.Fprintln(tw, "STATUS\tPLUGIN\tITEM\tDESCRIPTION\tPARAMETERS")
	for _, r := range p.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.Status, r.Service.CheckPluginName, itemText(r.Service.Item), r.Service.Description, r.ResolvedParameters)
	}
	_ = tw.Flush()
}

func printHostLabels(w io.Writer, labels *domain.HostLabels) {
	if labels.IsEmpty() {
		return
	}
	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "HOST LABEL\tVALUE\tPLUGIN")
	for _, l := range labels.ToList() {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Name(), l.Value(), l.PluginName())
	}
	_ = tw.Flush()
}

func itemText(item *string) string {
	if item == nil {
		return "-"
	}
	return *item
}

func labelText(labels map[string]string) string {
	if len(labels) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(labels))
	for k, v := range labels {
		parts = append(parts, k+":"+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
