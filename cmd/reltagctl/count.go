package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

func init() {
	rootCmd.AddCommand(countCmd)
}

var countCmd = &cobra.Command{
	Use:   "count <search>",
	Short: "Count posts matching a search",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCount,
}

// CountResult is the output of the count command.
type CountResult struct {
	Search string `json:"search"`
	Posts  int    `json:"posts"`
}

func runCount(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	search := tagsearch.Search(strings.Join(args, " "))

	corpus, err := openCorpus(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = corpus.Close() }()

	n, err := corpus.Count(ctx, tagsearch.Scope{SafeMode: safeMode}, search)
	if err != nil {
		return err
	}

	out := CountResult{Search: search.String(), Posts: n}
	return emit(out, func() {
		outputHuman("%d\n", n)
	})
}
