package main

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var flagFindFile string

var findCmd = &cobra.Command{
	Use:   "find [TEXT] CHAR",
	Short: "Find the first occurrence of a character",
	Long:  "Reports the index of the first CHAR in TEXT, or in the contents of --file. Indexes count characters, not bytes. A missing character is reported as null (text: not found), never as an error.",
	Args: func(cmd *cobra.Command, args []string) error {
		if flagFindFile != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runFind,
}

func init() {
	findCmd.Flags().StringVar(&flagFindFile, "file", "", "search the contents of this file instead of TEXT")
}

func runFind(cmd *cobra.Command, args []string) error {
	const command = "find"
	target, err := parseTarget(args[len(args)-1])
	if err != nil {
		return outputError(command, err)
	}

	engine, err := openEngine(command, cfg.Database.Record)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	ctx := context.Background()
	result := CLIFindResult{Target: string(target)}
	if flagFindFile != "" {
		result.Source = flagFindFile
		result.Index, err = engine.FindFirstInFile(ctx, flagFindFile, target)
	} else {
		result.Source = "text"
		result.Index, err = engine.FindFirst(ctx, args[0], target)
	}
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: result})
}

// parseTarget requires s to be exactly one character.
func parseTarget(s string) (rune, error) {
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("invalid character %q: must be exactly one character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

