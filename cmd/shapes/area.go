package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jward/shapes"
)

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Compute shape areas",
	Long:  "Compute the area of a circle (radius), square (side) or rectangle (width height). Payloads are not validated: negative and zero values are accepted. Put -- before negative values so they are not read as flags.",
}

var areaBatchCmd = &cobra.Command{
	Use:   "batch KIND:P1[,P2] ...",
	Short: "Compute many areas concurrently",
	Long:  "Each argument is a kind and its comma-separated payload, e.g. circle:2 square:3 rectangle:2,5. All areas are recorded in one transaction.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAreaBatch,
}

func init() {
	for _, kind := range shapes.Kinds() {
		areaCmd.AddCommand(newAreaKindCmd(kind))
	}
	areaCmd.AddCommand(areaBatchCmd)
}

// newAreaKindCmd builds "area <kind>" taking the kind's payload as
// positional arguments.
func newAreaKindCmd(kind shapes.Kind) *cobra.Command {
	arity, _ := shapes.Arity(kind)
	names := map[shapes.Kind]string{
		shapes.KindCircle:    "RADIUS",
		shapes.KindSquare:    "SIDE",
		shapes.KindRectangle: "WIDTH HEIGHT",
	}
	return &cobra.Command{
		Use:   string(kind) + " " + names[kind],
		Short: "Area of a " + string(kind),
		Args:  cobra.ExactArgs(arity),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runArea(kind, args)
		},
	}
}

func runArea(kind shapes.Kind, args []string) error {
	command := "area " + string(kind)
	params, err := parseFloats(args)
	if err != nil {
		return outputError(command, err)
	}
	s, err := shapes.NewShape(kind, params...)
	if err != nil {
		return outputError(command, err)
	}

	engine, err := openEngine(command, cfg.Database.Record)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	ev, err := engine.Area(context.Background(), s)
	if err != nil {
		return outputError(command, err)
	}
	return outputResult(CLIResult{Command: command, Results: toCLIEvaluation(ev)})
}

func runAreaBatch(cmd *cobra.Command, args []string) error {
	const command = "area batch"
	in := make([]shapes.Shape, 0, len(args))
	for _, arg := range args {
		s, err := parseShapeArg(arg)
		if err != nil {
			return outputError(command, err)
		}
		in = append(in, s)
	}

	engine, err := openEngine(command, cfg.Database.Record)
	if err != nil {
		return outputError(command, err)
	}
	defer engine.Close()

	evals, err := engine.AreaBatch(context.Background(), in)
	if err != nil {
		return outputError(command, err)
	}
	logger.Debug("batch done", zap.Int("shapes", len(evals)), zap.String("run_id", engine.RunID()))
	return outputResult(CLIResult{Command: command, Results: toCLIEvaluations(evals)})
}

// parseShapeArg parses "KIND:P1[,P2]".
func parseShapeArg(arg string) (shapes.Shape, error) {
	name, payload, ok := strings.Cut(arg, ":")
	if !ok {
		return nil, fmt.Errorf("invalid shape %q: want KIND:P1[,P2]", arg)
	}
	kind, err := shapes.ParseKind(name)
	if err != nil {
		return nil, err
	}
	params, err := parseFloats(strings.Split(payload, ","))
	if err != nil {
		return nil, fmt.Errorf("invalid shape %q: %w", arg, err)
	}
	s, err := shapes.NewShape(kind, params...)
	if err != nil {
		return nil, fmt.Errorf("invalid shape %q: %w", arg, err)
	}
	return s, nil
}

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		f, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = f
	}
	return out, nil
}
