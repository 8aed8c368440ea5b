package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

func init() {
	rootCmd.AddCommand(jaccardCmd)
}

var jaccardCmd = &cobra.Command{
	Use:   "jaccard <tag-a> <tag-b>",
	Short: "Compute the exact Jaccard index of two tags",
	Args:  cobra.ExactArgs(2),
	RunE:  runJaccard,
}

// JaccardResult is the output of the jaccard command.
type JaccardResult struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Score float64 `json:"score"`
}

func runJaccard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, b := strings.ToLower(args[0]), strings.ToLower(args[1])

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	score, err := e.service.JaccardSimilarity(ctx, tagsearch.Scope{SafeMode: safeMode}, a, b)
	if err != nil {
		return err
	}

	out := JaccardResult{A: a, B: b, Score: score}
	return emit(out, func() {
		outputHuman("J(%s, %s) = %.4f\n", a, b, score)
	})
}
