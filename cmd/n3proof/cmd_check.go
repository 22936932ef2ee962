package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"n3proof/internal/mangle"
	"n3proof/internal/nquads"
	"n3proof/internal/rdf"
	"n3proof/internal/rulegraph"
)

var (
	checkQuery  string
	checkStrict bool
	checkStats  bool
)

var checkCmd = &cobra.Command{
	Use:   "check FILE...",
	Short: "Analyze the log:implies rule graph",
	Long: `Loads FILE... and analyzes its rule structure with Mangle: implication
reachability, cyclic rules, conclusions no rule concludes, and conclusions
that cannot be derived from premises holding in the graph.

--query runs one Mangle atom against the analysis, e.g.
  n3proof check proof.nq --query 'reachable(X, Y)'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkQuery, "query", "q", "", "Mangle query over the analysis")
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Exit non-zero unless the rule graph is clean")
	checkCmd.Flags().BoolVar(&checkStats, "stats", false, "Print fact counts per predicate")
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := expandPaths(args)
	if err != nil {
		return err
	}
	g, err := nquads.LoadFiles(files...)
	if err != nil {
		return err
	}
	a, err := rulegraph.Analyze(g, rulegraph.Options{Logger: logger})
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rules: %d (skipped %d with non-IRI antecedent)\n", a.Rules, a.Skipped)
	fmt.Fprintf(w, "premises holding: %s\n", shortList(a.Holding))
	fmt.Fprintf(w, "derivable: %s\n", shortList(a.Derivable))
	if len(a.Cyclic) > 0 {
		fmt.Fprintf(w, "cyclic: %s\n", shortList(a.Cyclic))
	}
	for _, u := range a.Unsupported {
		fmt.Fprintf(w, "unsupported: %s concludes %s, which no rule implies\n", rdf.Short(u.Document), rdf.Short(u.Formula))
	}
	for _, u := range a.Unreached {
		fmt.Fprintf(w, "unreached: %s concludes %s, not derivable from holding premises\n", rdf.Short(u.Document), rdf.Short(u.Formula))
	}
	if a.Clean() {
		fmt.Fprintln(w, "rule graph clean")
	}
	if checkStats {
		fmt.Fprintf(w, "facts: %s\n", formatCounts(a.Facts))
	}

	if checkQuery != "" {
		rows, err := a.Program().Query(commandContext(cmd), checkQuery)
		if err != nil {
			return fmt.Errorf("query failed: %w", err)
		}
		fmt.Fprintf(w, "%d result(s)\n", len(rows))
		for _, b := range rows {
			fmt.Fprintf(w, "  %s\n", formatBinding(b))
		}
	}

	if checkStrict && !a.Clean() {
		return errProofFailed
	}
	return nil
}

func shortList(ts []rdf.Term) string {
	if len(ts) == 0 {
		return "none"
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = rdf.Short(t)
	}
	return strings.Join(parts, ", ")
}

func formatBinding(b mangle.Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, b[k])
	}
	return strings.Join(parts, " ")
}

func formatCounts(counts map[string]int) string {
	preds := make([]string, 0, len(counts))
	for p := range counts {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = fmt.Sprintf("%s=%d", p, counts[p])
	}
	return strings.Join(parts, " ")
}
