package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"n3proof/internal/store"
)

var (
	historyDoc   string
	historyLimit int
	historyStats bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded verifications",
	Long: `Lists verifications recorded with verify --record (or with
store.enabled in config), newest first.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyDoc, "doc", "d", "", "Only this proof document")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "Summarize counts per verdict instead")
}

func runHistory(cmd *cobra.Command, args []string) error {
	h, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer h.Close()

	ctx := commandContext(cmd)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if historyStats {
		counts, err := h.Stats(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "VERDICT\tKIND\tCOUNT")
		for _, c := range counts {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Verdict, dash(c.ErrorKind), c.Count)
		}
		return nil
	}

	runs, err := h.Recent(ctx, historyDoc, historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(tw, "no recorded verifications")
		return nil
	}
	fmt.Fprintln(tw, "WHEN\tDOCUMENT\tVERDICT\tKIND\tDERIVED\tDURATION\tDIGEST")
	for _, r := range runs {
		digest := r.GraphDigest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%v\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime), r.Document, r.Verdict, dash(r.ErrorKind),
			len(r.Derived), r.Duration, digest)
	}
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
