package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
)

// formatEvaluationsText formats CLIEvaluation results as aligned columns.
func formatEvaluationsText(w io.Writer, evals []CLIEvaluation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tPARAMS\tAREA")
	for _, ev := range evals {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", ev.ID, ev.Kind, joinFloats(ev.Params), ev.Area)
	}
	tw.Flush()
}

// formatFindText formats a find result as one line.
func formatFindText(w io.Writer, r CLIFindResult) {
	fmt.Fprintf(w, "%q in %s: %s\n", r.Target, r.Source, r.Index)
}

// formatSearchesText formats CLISearch results as aligned columns. Long
// texts are truncated.
func formatSearchesText(w io.Writer, searches []CLISearch) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSOURCE\tTARGET\tPOSITION\tTEXT")
	for _, sr := range searches {
		pos := "-"
		if sr.Position != nil {
			pos = fmt.Sprint(*sr.Position)
		}
		fmt.Fprintf(tw, "%d\t%s\t%q\t%s\t%s\n", sr.ID, sr.Source, sr.Target, pos, truncate(sr.Text, 40))
	}
	tw.Flush()
}

// formatSummaryText formats CLISummary as readable text.
func formatSummaryText(w io.Writer, sum CLISummary) {
	fmt.Fprintln(w, "History Summary")
	fmt.Fprintln(w, "===============")
	fmt.Fprintf(w, "Runs: %d\n", sum.Runs)
	fmt.Fprintf(w, "Evaluations: %d\n", sum.Evaluations)
	fmt.Fprintf(w, "Searches: %d found, %d not found\n", sum.Hits, sum.Misses)

	if len(sum.Kinds) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "KIND\tCOUNT\tTOTAL\tMAX")
		for _, k := range sum.Kinds {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", k.Kind, k.Count, k.TotalArea, k.MaxArea)
		}
		tw.Flush()
	}
}

// formatScriptText prints a script's value. Maps print one key per line in
// key order.
func formatScriptText(w io.Writer, r CLIScriptResult) {
	m, ok := r.Value.(map[string]any)
	if !ok {
		fmt.Fprintln(w, formatValue(r.Value))
		return
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, formatValue(m[k]))
	}
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIEvaluation:
		formatEvaluationsText(w, v)
	case CLIEvaluation:
		formatEvaluationsText(w, []CLIEvaluation{v})
	case CLIFindResult:
		formatFindText(w, v)
	case []CLISearch:
		formatSearchesText(w, v)
	case CLISummary:
		formatSummaryText(w, v)
	case CLIScriptResult:
		formatScriptText(w, v)
	case CLIDeleted:
		fmt.Fprintf(w, "deleted run %s\n", v.RunID)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

func joinFloats(fs []Float) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, ",")
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", `\n`)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
