// Package main provides the reltagctl CLI entry point.
package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reltag/internal/corpus/sqlite"
	"github.com/kailas-cloud/reltag/internal/db"
	dbMemory "github.com/kailas-cloud/reltag/internal/db/memory"
	dbRedis "github.com/kailas-cloud/reltag/internal/db/redis"
	logpkg "github.com/kailas-cloud/reltag/internal/logger"
	"github.com/kailas-cloud/reltag/internal/repository/samplecache"
	relateduc "github.com/kailas-cloud/reltag/internal/usecase/related"
	"github.com/kailas-cloud/reltag/internal/version"
)

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool
	dbPath      string
	cacheAddr   string
	safeMode    bool
	logLevel    string
)

func main() {
	os.Exit(run())
}

// run executes the root command so deferred cleanups in commands finish before exit.
func run() int {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors is set, so cobra and command errors are reported here
		reportError(err)
		return exitCodeFor(err)
	}
	return ExitSuccess
}

var rootCmd = &cobra.Command{
	Use:   "reltagctl",
	Short: "Related-tag corpus and similarity CLI",
	Long: `reltagctl loads post dumps into a SQLite corpus and queries
tag similarity against it.

All commands output JSON by default; pass --human for text.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", envOr("CORPUS_PATH", "data/corpus.db"), "SQLite corpus path")
	rootCmd.PersistentFlags().StringVar(&cacheAddr, "cache-addr", os.Getenv("DB_ADDR"),
		"Redis/Valkey address for the sample cache (default: process-local cache)")
	rootCmd.PersistentFlags().BoolVar(&safeMode, "safe-mode", false, "Only consider posts rated safe")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level written to stderr")
	rootCmd.Version = version.Version
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// engine bundles the opened corpus and the similarity service.
type engine struct {
	corpus  *sqlite.Corpus
	service *relateduc.Service
	store   db.Store
}

func (e *engine) Close() {
	if e.store != nil {
		e.store.Close()
	}
	_ = e.corpus.Close()
}

func newLogger() *zap.Logger {
	logger, err := logpkg.NewLogger("local", logLevel)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// openCorpus opens the corpus at --db.
func openCorpus(ctx context.Context) (*sqlite.Corpus, error) {
	c, err := sqlite.Open(ctx, dbPath)
	if err != nil {
		return nil, withExitCode(ExitConfigError, "opening corpus %s: %w", dbPath, err)
	}
	return c, nil
}

// openEngine wires the corpus, the sample cache and the similarity service.
// The caller owns the returned engine and must Close it.
func openEngine(ctx context.Context) (*engine, error) {
	logger := newLogger()
	corpus, err := openCorpus(ctx)
	if err != nil {
		return nil, err
	}

	var store db.Store = dbMemory.New()
	if cacheAddr != "" {
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: []string{cacheAddr}})
		if err != nil {
			_ = corpus.Close()
			return nil, withExitCode(ExitConfigError, "connecting to cache %s: %w", cacheAddr, err)
		}
		store = s
	}

	cache := samplecache.New(store, nil, logger)
	return &engine{
		corpus:  corpus,
		service: relateduc.New(corpus, cache),
		store:   store,
	}, nil
}
