package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/shapes/scripts"
)

var runCmd = &cobra.Command{
	Use:   "run SCRIPT",
	Short: "Run a Risor script",
	Long:  "Runs SCRIPT with the shape and search host functions and prints its final value. SCRIPT is a file on disk, or else a name in the script set (embedded, or scripts.dir from the config).",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript("run", args[0], true)
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run the bundled demonstration script",
	Long:  "Measures a circle, a square and a rectangle, and searches \"raman\" for 'a'.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScript("demo", scripts.Demo, false)
	},
}

// runScript runs script and prints its value. With fromDisk, an existing
// file at script is run in place of the script set's entry.
func runScript(command, script string, fromDisk bool) error {
	engine, err := openEngine(command, cfg.Database.Record)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	ctx := context.Background()
	var value any
	if src, ok := readScriptFile(script, fromDisk); ok {
		logger.Debug("running script from disk", zap.String("path", script))
		value, err = engine.RunSource(ctx, src)
	} else {
		value, err = engine.RunScript(ctx, script)
	}
	if err != nil {
		return outputError(command, err)
	}

	return outputResult(CLIResult{
		Command: command,
		Results: CLIScriptResult{Script: script, RunID: engine.RunID(), Value: jsonSafe(value)},
	})
}

func readScriptFile(path string, fromDisk bool) (string, bool) {
	if !fromDisk {
		return "", false
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	return string(src), true
}
