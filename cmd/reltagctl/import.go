package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reltag/internal/corpus/jsonl"
	"github.com/kailas-cloud/reltag/internal/domain/post"
)

var (
	importTagsFile  string
	importBatchSize int
)

func init() {
	importCmd.Flags().StringVar(&importTagsFile, "tags", "", "JSONL file of {name, category} tag records")
	importCmd.Flags().IntVar(&importBatchSize, "batch", 1000, "Posts per transaction")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <posts.jsonl>",
	Short: "Load a post dump into the corpus",
	Long: `Load a post dump into the corpus.

Each line is {"md5": "...", "tag_string": "a b c", "rating": "s|q|e"}.
Posts with an existing md5 are replaced.

Usage:
  reltagctl import posts.jsonl
  reltagctl import posts.jsonl --tags tags.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResult is the output of the import command.
type ImportResult struct {
	Posts    int    `json:"posts"`
	Tags     int    `json:"tags"`
	Duration string `json:"duration"`
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	corpus, err := openCorpus(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = corpus.Close() }()

	f, err := os.Open(args[0])
	if err != nil {
		return withExitCode(ExitDataError, "opening %s: %w", args[0], err)
	}
	defer f.Close()

	n, err := jsonl.ReadPosts(f, importBatchSize, func(batch []post.Post) error {
		return corpus.Import(ctx, batch)
	})
	if err != nil {
		return withExitCode(ExitDataError, "importing %s after %d posts: %w", args[0], n, err)
	}

	result := ImportResult{Posts: n}
	if importTagsFile != "" {
		tf, err := os.Open(importTagsFile)
		if err != nil {
			return withExitCode(ExitDataError, "opening %s: %w", importTagsFile, err)
		}
		defer tf.Close()

		tags, err := jsonl.ReadTags(tf)
		if err != nil {
			return withExitCode(ExitDataError, "reading %s: %w", importTagsFile, err)
		}
		if err := corpus.ImportTags(ctx, tags); err != nil {
			return withExitCode(ExitError, "importing tags: %w", err)
		}
		result.Tags = len(tags)
	}
	result.Duration = time.Since(start).Round(time.Millisecond).String()

	return emit(result, func() {
		outputHuman("Imported %d posts and %d tag categories in %s\n", result.Posts, result.Tags, result.Duration)
	})
}
