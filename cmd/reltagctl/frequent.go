package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reltag/internal/domain"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
)

var (
	frequentLimit      int
	frequentSampleSize int
	frequentCategories []string
)

func init() {
	frequentCmd.Flags().IntVarP(&frequentLimit, "limit", "n", domrel.DefaultFrequentLimit, "Maximum number of tags")
	frequentCmd.Flags().IntVar(&frequentSampleSize, "sample-size", domrel.DefaultSampleSize, "Sample size")
	frequentCmd.Flags().StringSliceVar(&frequentCategories, "category", nil,
		"Restrict to tag categories (general, artist, copyright, character, meta)")
	rootCmd.AddCommand(frequentCmd)
}

var frequentCmd = &cobra.Command{
	Use:   "frequent <search>",
	Short: "List the most frequent tags among posts matching a search",
	Long: `List the most frequent tags among a sample of posts matching a search.

With --human the output is the space separated "tag count tag count" form.

Usage:
  reltagctl frequent cat
  reltagctl frequent cat --category artist --human`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFrequent,
}

// FrequentTag is one counted tag.
type FrequentTag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// FrequentResult is the output of the frequent command.
type FrequentResult struct {
	Search string        `json:"search"`
	Tags   []FrequentTag `json:"tags"`
}

func runFrequent(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	search := tagsearch.Search(strings.Join(args, " "))

	categories := make([]tag.Category, 0, len(frequentCategories))
	for _, raw := range frequentCategories {
		c, err := tag.ParseCategory(raw)
		if err != nil {
			return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		categories = append(categories, c)
	}

	req, err := domrel.NewFrequentRequest(
		search, categories, frequentLimit, frequentSampleSize, tagsearch.Scope{SafeMode: safeMode},
	)
	if err != nil {
		return err
	}

	e, err := openEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	counts, err := e.service.FrequentTags(ctx, req)
	if err != nil {
		return err
	}

	out := FrequentResult{Search: search.String(), Tags: make([]FrequentTag, len(counts))}
	for i, c := range counts {
		out.Tags[i] = FrequentTag{Name: c.Name, Count: c.Count}
	}

	return emit(out, func() {
		outputHuman("%s\n", domrel.FormatTagCounts(counts))
	})
}
