package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"auto-i18n/internal/build"
	"auto-i18n/internal/cache"
	"auto-i18n/internal/codegen"
	"auto-i18n/internal/collect"
	"auto-i18n/internal/config"
	"auto-i18n/internal/engine"
	"auto-i18n/internal/filewalker"
	"auto-i18n/internal/graph"
	"auto-i18n/internal/locale"
	"auto-i18n/internal/placeholder"
	"auto-i18n/internal/report"
	"auto-i18n/internal/store"
	"auto-i18n/internal/textutil"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ErrPlaceholderMismatch is returned by check when a translation drops or
// adds placeholders.
var ErrPlaceholderMismatch = errors.New("placeholder mismatch")

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "auto-i18n",
		Short: "Build-time phrase extraction and locale bundling",
		Long: `Rewrites target-script string literals in syntax-tree units into translation
lookups, collects the phrases, reconciles them against a translation table,
and emits per-locale message bundles.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging and full report listings")

	root.AddCommand(extractCmd())
	root.AddCommand(decodeCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(checkCmd())
	root.AddCommand(publishCmd())
	root.AddCommand(graphSyncCmd())
	root.AddCommand(usageCmd())

	return root
}

// pipelineFlags are shared by commands that walk source units.
type pipelineFlags struct {
	table     string
	keepGoing bool
	noCache   bool
	workers   int
}

func (f *pipelineFlags) register(cmd *cobra.Command, tableUsage string) {
	cmd.Flags().StringVar(&f.table, "table", "", tableUsage)
	cmd.Flags().BoolVar(&f.keepGoing, "keep-going", false, "Skip units that fail instead of aborting")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "Ignore the unit cache")
	cmd.Flags().IntVar(&f.workers, "workers", 0, "Concurrent units (default WORKER_COUNT)")
}

func extractCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "extract <src-dir>",
		Short: "Rewrite target-script literals and collect phrases",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir, _ := cmd.Flags().GetString("out")
			phrasesPath, _ := cmd.Flags().GetString("phrases")
			return runExtract(args[0], outDir, phrasesPath, flags)
		},
	}
	flags.register(cmd, "Translation table to reconcile against")
	cmd.Flags().String("out", "", "Directory receiving rewritten units")
	cmd.Flags().String("phrases", "", "Write the aggregate phrase list as JSON to this path")
	return cmd
}

func decodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <table>",
		Short: "Decode a translation table and emit locale bundles",
		Long: `Decodes an .xlsx, .csv or .tsv translation table. With --export the decoded
table is written as json, yaml or tsv. With --bundle an index module plus one
lazily loaded module per non-default locale are written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("export")
			output, _ := cmd.Flags().GetString("output")
			bundle, _ := cmd.Flags().GetString("bundle")
			name, _ := cmd.Flags().GetString("name")
			phrasesPath, _ := cmd.Flags().GetString("phrases")
			return runDecode(args[0], format, output, bundle, name, phrasesPath)
		},
	}
	cmd.Flags().String("export", "", "Export format: json, yaml or tsv")
	cmd.Flags().String("output", "-", "Export destination, - for stdout")
	cmd.Flags().String("bundle", "", "Directory receiving the locale bundle")
	cmd.Flags().String("name", "i18n", "Bundle base file name")
	cmd.Flags().String("phrases", "", "Phrase list from extract, merged into the default locale")
	return cmd
}

func reconcileCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "reconcile <src-dir> <table>",
		Short: "Compare extracted phrases against a translation table",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			htmlPath, _ := cmd.Flags().GetString("html")
			jsonPath, _ := cmd.Flags().GetString("json")
			verbose, _ := cmd.Flags().GetBool("verbose")
			flags.table = args[1]
			return runReconcile(cmd.OutOrStdout(), args[0], htmlPath, jsonPath, verbose, flags)
		},
	}
	flags.register(cmd, "")
	cmd.Flags().MarkHidden("table")
	cmd.Flags().String("html", "", "Write an HTML report to this path")
	cmd.Flags().String("json", "", "Write a JSON report to this path")
	return cmd
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <table>",
		Short: "Verify translations keep the placeholders of their source text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd.OutOrStdout(), args[0])
		},
	}
}

func publishCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "publish <src-dir>",
		Short: "Store the phrase registry and reconciliation run in PostgreSQL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(args[0], flags)
		},
	}
	flags.register(cmd, "Translation table; when set the reconciliation run is recorded")
	return cmd
}

func graphSyncCmd() *cobra.Command {
	var flags pipelineFlags
	cmd := &cobra.Command{
		Use:   "graph-sync <src-dir>",
		Short: "Sync the unit → phrase usage graph to Neo4j",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGraphSync(args[0], flags)
		},
	}
	flags.register(cmd, "Translation table whose locales are linked to phrases")
	return cmd
}

func usageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Query the usage graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			unit, _ := cmd.Flags().GetString("unit")
			hash, _ := cmd.Flags().GetString("phrase")
			untranslated, _ := cmd.Flags().GetString("untranslated")
			return runUsage(cmd.OutOrStdout(), unit, hash, untranslated)
		},
	}
	cmd.Flags().String("unit", "", "List the phrases a unit uses")
	cmd.Flags().String("phrase", "", "List the units using a phrase hash")
	cmd.Flags().String("untranslated", "", "List used phrases lacking a translation in this locale")
	cmd.MarkFlagsMutuallyExclusive("unit", "phrase", "untranslated")
	cmd.MarkFlagsOneRequired("unit", "phrase", "untranslated")
	return cmd
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

// connectPostgres opens and verifies a PostgreSQL pool.
func connectPostgres(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pgPool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pgPool, nil
}

// connectNeo4j opens and verifies a Neo4j driver.
func connectNeo4j(ctx context.Context, cfg *config.Config) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, fmt.Errorf("connect Neo4j: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("verify Neo4j connectivity: %w", err)
	}
	log.Info().Msg("Connected to Neo4j")
	return driver, nil
}

// engineOptions maps configuration onto rule options.
func engineOptions(cfg *config.Config) (engine.Options, error) {
	detector, err := textutil.DetectorFor(cfg.TargetScript, cfg.ExtraRanges)
	if err != nil {
		return engine.Options{}, fmt.Errorf("target script: %w", err)
	}
	return engine.Options{
		TranslateFunc:         cfg.TranslateFunc,
		EnableConcatenation:   cfg.EnableConcatenation,
		EnableDirectiveFilter: cfg.EnableDirectiveFilter,
		BuilderMethod:         cfg.BuilderMethod,
		Detector:              detector,
	}, nil
}

// newPipeline builds the extraction pipeline. The returned cleanup closes the
// unit cache.
func newPipeline(cfg *config.Config, flags pipelineFlags, outDir string) (*build.Pipeline, func(), error) {
	opts, err := engineOptions(cfg)
	if err != nil {
		return nil, nil, err
	}

	walker, err := filewalker.NewWalker(cfg.Exclude)
	if err != nil {
		return nil, nil, err
	}

	workers := cfg.WorkerCount
	if flags.workers > 0 {
		workers = flags.workers
	}

	var unitCache *cache.UnitCache
	if !flags.noCache && cfg.CachePath != "" {
		unitCache, err = cache.Open(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		if err := unitCache.Preload(); err != nil {
			log.Warn().Err(err).Msg("Failed to preload unit cache")
		}
	}

	cleanup := func() {
		if unitCache != nil {
			if err := unitCache.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to close unit cache")
			}
		}
	}

	p := build.NewPipeline(walker, build.NewRewriter(engine.New(opts), cfg.DisableMarker), build.Options{
		Workers:   workers,
		OutDir:    outDir,
		KeepGoing: flags.keepGoing,
		Cache:     unitCache,
	})
	return p, cleanup, nil
}

// runPipeline loads configuration and runs extraction plus reconciliation.
func runPipeline(ctx context.Context, cfg *config.Config, srcDir, outDir string, flags pipelineFlags) (*build.Build, error) {
	p, cleanup, err := newPipeline(cfg, flags, outDir)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	b, err := p.Run(ctx, srcDir, flags.table, cfg.DefaultLocale)
	if err != nil {
		return nil, err
	}

	if removed, err := p.RetainCache(b.Extraction); err != nil {
		log.Warn().Err(err).Msg("Failed to prune unit cache")
	} else if removed > 0 {
		log.Debug().Int("removed", removed).Msg("Pruned unit cache")
	}
	return b, nil
}

// runExtract handles the `extract` command.
func runExtract(srcDir, outDir, phrasesPath string, flags pipelineFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	b, err := runPipeline(ctx, cfg, srcDir, outDir, flags)
	if err != nil {
		return err
	}

	needsImport := 0
	for _, u := range b.Extraction.Units {
		if u.NeedsImport {
			needsImport++
			log.Debug().Str("unit", u.Unit).Str("fn", cfg.TranslateFunc).Msg("Unit needs translate function import")
		}
	}

	if phrasesPath != "" {
		if err := writeJSON(phrasesPath, b.Extraction.Aggregate); err != nil {
			return err
		}
	}

	added, removed, common := b.Diff.Counts()
	event := log.Info().
		Int("units", len(b.Extraction.Units)).
		Int("needs_import", needsImport).
		Int("phrases", b.Extraction.Aggregate.Len())
	if b.Table != nil {
		event = event.Int("added", added).Int("removed", removed).Int("common", common)
	}
	event.Msg("Extract complete")
	return nil
}

// runDecode handles the `decode` command.
func runDecode(tablePath, format, output, bundleDir, name, phrasesPath string) error {
	cfg := config.Load()

	table, err := build.DecodeTable(tablePath, cfg.DefaultLocale)
	if err != nil {
		return err
	}

	if format != "" {
		if err := exportTable(table, format, output); err != nil {
			return err
		}
	}

	if bundleDir != "" {
		if phrasesPath != "" {
			collected, err := readPhrases(phrasesPath)
			if err != nil {
				return err
			}
			table = table.WithFallback(collected.Messages())
		}

		written, err := codegen.WriteBundle(bundleDir, name, locale.Partition(table, cfg.AsyncLocales))
		if err != nil {
			return err
		}
		log.Info().Int("files", len(written)).Str("dir", bundleDir).Msg("Bundle written")
	}

	log.Info().
		Strs("locales", table.Locales).
		Str("default", table.Default).
		Int("rows", len(table.Keys)).
		Msg("Decode complete")
	return nil
}

func exportTable(table *locale.Table, format, output string) error {
	if output == "-" {
		return table.Export(os.Stdout, format)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	if err := table.Export(f, format); err != nil {
		return err
	}
	log.Info().Str("path", output).Str("format", format).Msg("Exported table")
	return nil
}

// runReconcile handles the `reconcile` command.
func runReconcile(w io.Writer, srcDir, htmlPath, jsonPath string, verbose bool, flags pipelineFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	b, err := runPipeline(ctx, cfg, srcDir, "", flags)
	if err != nil {
		return err
	}

	report.Summary(w, b.Diff, verbose)

	if htmlPath != "" {
		if err := writeWith(htmlPath, func(f io.Writer) error {
			return report.HTML(f, "", b.Diff)
		}); err != nil {
			return err
		}
		log.Info().Str("path", htmlPath).Msg("HTML report written")
	}
	if jsonPath != "" {
		if err := writeWith(jsonPath, func(f io.Writer) error {
			return report.JSON(f, b.Diff)
		}); err != nil {
			return err
		}
		log.Info().Str("path", jsonPath).Msg("JSON report written")
	}
	return nil
}

// runCheck handles the `check` command.
func runCheck(w io.Writer, tablePath string) error {
	cfg := config.Load()

	table, err := build.DecodeTable(tablePath, cfg.DefaultLocale)
	if err != nil {
		return err
	}

	issues := placeholder.Check(table)
	for _, is := range issues {
		fmt.Fprintf(w, "%s %s %q → %q missing=%v extra=%v\n",
			is.Locale, is.Hash, is.Source, is.Text, is.Missing, is.Extra)
	}
	if len(issues) > 0 {
		return fmt.Errorf("%w: %d translations", ErrPlaceholderMismatch, len(issues))
	}

	log.Info().Int("locales", len(table.Locales)).Int("rows", len(table.Keys)).Msg("Placeholders consistent")
	return nil
}

// runPublish handles the `publish` command.
func runPublish(srcDir string, flags pipelineFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	pgPool, err := connectPostgres(ctx, cfg)
	if err != nil {
		return err
	}
	defer pgPool.Close()

	b, err := runPipeline(ctx, cfg, srcDir, "", flags)
	if err != nil {
		return err
	}

	st := store.New(pgPool, cfg.BatchSize)
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}

	inserted, err := st.UpsertPhrases(ctx, b.Extraction.Aggregate.Phrases())
	if err != nil {
		return err
	}

	event := log.Info().Int("phrases", b.Extraction.Aggregate.Len()).Int("new", inserted)
	if b.Table != nil {
		id, err := st.RecordRun(ctx, b.Diff)
		if err != nil {
			return err
		}
		event = event.Str("run", id.String())
	}
	event.Msg("Publish complete")
	return nil
}

// runGraphSync handles the `graph-sync` command.
func runGraphSync(srcDir string, flags pipelineFlags) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	b, err := runPipeline(ctx, cfg, srcDir, "", flags)
	if err != nil {
		return err
	}

	builder := graph.NewUsageBuilder(driver)
	if err := builder.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure graph schema: %w", err)
	}

	reg := b.Extraction.Registry
	units := reg.Units()
	for _, unit := range units {
		table, _ := reg.Unit(unit)
		if err := builder.SyncUnit(ctx, unit, table.Phrases()); err != nil {
			return err
		}
	}

	pruned, err := builder.PruneUnits(ctx, units)
	if err != nil {
		return err
	}

	if b.Table != nil {
		if err := builder.SyncTranslations(ctx, b.Table); err != nil {
			return err
		}
	}

	log.Info().Int("units", len(units)).Int("pruned", pruned).Msg("Graph sync complete")
	return nil
}

// runUsage handles the `usage` command.
func runUsage(w io.Writer, unit, hash, untranslated string) error {
	ctx, cancel := setupContext()
	defer cancel()

	cfg := config.Load()

	driver, err := connectNeo4j(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	q := graph.NewUsageQuerier(driver)

	if hash != "" {
		units, err := q.UnitsForPhrase(ctx, hash)
		if err != nil {
			return err
		}
		for _, u := range units {
			fmt.Fprintln(w, u)
		}
		return nil
	}

	var phrases []collect.Phrase
	if unit != "" {
		phrases, err = q.PhrasesForUnit(ctx, unit)
	} else {
		phrases, err = q.Untranslated(ctx, untranslated)
	}
	if err != nil {
		return err
	}
	for _, p := range phrases {
		fmt.Fprintf(w, "%s\t%s\n", p.Hash, p.Text)
	}
	return nil
}

func readPhrases(path string) (*collect.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phrases: %w", err)
	}
	table := collect.NewTable()
	if err := json.Unmarshal(data, table); err != nil {
		return nil, fmt.Errorf("decode phrases %s: %w", path, err)
	}
	return table, nil
}

func writeJSON(path string, v any) error {
	return writeWith(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	})
}

// writeWith creates path, including parent directories, and fills it with fn.
func writeWith(path string, fn func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
