package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

var (
	similarLimit      int
	similarSampleSize int
)

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", domrel.DefaultTopN, "Maximum number of tags")
	similarCmd.Flags().IntVar(&similarSampleSize, "sample-size", domrel.DefaultSampleSize, "MinHash sample size")
	rootCmd.AddCommand(similarCmd)
}

var similarCmd = &cobra.Command{
	Use:   "similar <search>",
	Short: "Rank tags by Jaccard similarity to a search",
	Long: `Rank tags by Jaccard similarity to a search.

Searches are space separated terms: tag, -tag, ~tag, rating:s|q|e.

Usage:
  reltagctl similar cat
  reltagctl similar "cat -dog" --limit 10 --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSimilar,
}

// SimilarTag is one ranked tag.
type SimilarTag struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SimilarResult is the output of the similar command.
type SimilarResult struct {
	Search   string       `json:"search"`
	Strategy string       `json:"strategy"`
	Tags     []SimilarTag `json:"tags"`
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	search := tagsearch.Search(strings.Join(args, " "))

	req, err := domrel.NewRequest(search, similarLimit, similarSampleSize, tagsearch.Scope{SafeMode: safeMode})
	if err != nil {
		return err
	}

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	res, err := e.service.SimilarTags(ctx, req)
	if err != nil {
		return err
	}

	out := SimilarResult{Search: res.Search.String(), Strategy: res.Strategy.String(), Tags: make([]SimilarTag, len(res.Tags))}
	for i, t := range res.Tags {
		out.Tags[i] = SimilarTag{Name: t.Tag, Score: t.Score}
	}

	return emit(out, func() {
		outputHuman("%s (%s, %d tags)\n", out.Search, out.Strategy, len(out.Tags))
		for _, t := range out.Tags {
			outputHuman("  %-40s %.4f\n", t.Name, t.Score)
		}
	})
}
