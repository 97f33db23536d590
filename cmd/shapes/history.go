package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/shapes"
)

var (
	flagLimit  int
	flagOffset int
	flagKind   string
	flagRun    string
	flagFound  string
	flagText   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Query the recorded history",
	Long:  "Read evaluations, searches and aggregates recorded by earlier commands. Results are newest first.",
}

var historyEvaluationsCmd = &cobra.Command{
	Use:   "evaluations",
	Short: "List recorded area evaluations",
	Args:  cobra.NoArgs,
	RunE:  runHistoryEvaluations,
}

var historySearchesCmd = &cobra.Command{
	Use:   "searches",
	Short: "List recorded searches",
	Args:  cobra.NoArgs,
	RunE:  runHistorySearches,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete --run RUN_ID",
	Short: "Delete a run and everything recorded under it",
	Args:  cobra.NoArgs,
	RunE:  runHistoryDelete,
}

var historySummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize the history",
	Args:  cobra.NoArgs,
	RunE:  runHistorySummary,
}

func init() {
	historyCmd.PersistentFlags().IntVar(&flagLimit, "limit", 50, "pagination limit (0 for no limit)")
	historyCmd.PersistentFlags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	historyCmd.PersistentFlags().StringVar(&flagRun, "run", "", "only results from this run ID")
	historyEvaluationsCmd.Flags().StringVar(&flagKind, "kind", "", "only this shape kind")
	historySearchesCmd.Flags().StringVar(&flagFound, "found", "", "true: only hits, false: only misses")
	historySearchesCmd.Flags().StringVar(&flagText, "text", "", "only searches over exactly this text")

	historyCmd.AddCommand(historyEvaluationsCmd)
	historyCmd.AddCommand(historySearchesCmd)
	historyCmd.AddCommand(historySummaryCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// openHistory opens an existing database without starting a run.
func openHistory(command string) (*shapes.Engine, error) {
	dbPath := resolveDBPath(currentRepoRoot())
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'shapes area' or 'shapes find' first)", dbPath)
	}
	return openEngine(command, false)
}

func validatePage() error {
	if flagLimit < 0 {
		return fmt.Errorf("invalid limit %d: must be non-negative", flagLimit)
	}
	if flagOffset < 0 {
		return fmt.Errorf("invalid offset %d: must be non-negative", flagOffset)
	}
	return nil
}

func runHistoryEvaluations(cmd *cobra.Command, args []string) error {
	const command = "history evaluations"
	if err := validatePage(); err != nil {
		return outputError(command, err)
	}
	engine, err := openHistory(command)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	evals, err := engine.Query().Evaluations(shapes.EvaluationFilter{
		Kind:   flagKind,
		RunID:  flagRun,
		Limit:  flagLimit,
		Offset: flagOffset,
	})
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: toCLIEvaluations(evals)})
}

func runHistorySearches(cmd *cobra.Command, args []string) error {
	const command = "history searches"
	if err := validatePage(); err != nil {
		return outputError(command, err)
	}
	filter := shapes.SearchFilter{RunID: flagRun, Limit: flagLimit, Offset: flagOffset}
	if flagText != "" {
		filter.TextHash = shapes.TextHash(flagText)
	}
	if flagFound != "" {
		found, err := strconv.ParseBool(flagFound)
		if err != nil {
			return outputError(command, fmt.Errorf("invalid --found %q: must be true or false", flagFound))
		}
		filter.Found = &found
	}

	engine, err := openHistory(command)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	searches, err := engine.Query().Searches(filter)
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: toCLISearches(searches)})
}

func runHistorySummary(cmd *cobra.Command, args []string) error {
	const command = "history summary"
	engine, err := openHistory(command)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	sum, err := engine.Query().Summary()
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: toCLISummary(sum)})
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	const command = "history delete"
	if flagRun == "" {
		return outputError(command, fmt.Errorf("--run is required"))
	}
	engine, err := openHistory(command)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	if err := engine.DeleteRun(flagRun); err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: CLIDeleted{RunID: flagRun}})
}
