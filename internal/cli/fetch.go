package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/seqwell/isosrc/internal/cache"
	"github.com/seqwell/isosrc/internal/echo"
	"github.com/seqwell/isosrc/internal/entrez"
	"github.com/seqwell/isosrc/internal/model"
	"github.com/seqwell/isosrc/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	email          string
	database       string
	batchSize      int
	pause          time.Duration
	pauseThreshold int
	retries        int
	timeout        time.Duration
	noReferences   bool
	noCache        bool
	cacheDir       string
	outPath        string
	histogramPath  string
	logPath        string
	httpProxy      string
	httpsProxy     string
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch <file>...",
	Short: "Fetch isolation sources for accessions found in sequence files",
	Long: `Fetch reads one or more FASTA files, classifies the accession numbers
embedded in their descriptions, queries the remote database in paced
batches and writes two artifacts:
- a CSV report of description, accession, isolation source and country
- a frequency histogram of all isolation sources, sorted by count

The remote service's usage policy requires a contact email address on
every request; set it with --email or ISOSRC_EMAIL.

Example:
  isosrc fetch sequences.fasta --email you@example.org
  isosrc fetch a.fasta b.fasta --db protein --batch-size 10 --no-references
  isosrc fetch silva_export.fasta --pause 3m --retries 5 --out report.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)

	// Remote service flags
	fetchCmd.Flags().StringVar(&email, "email", "", "contact email sent to the remote service (required)")
	fetchCmd.Flags().StringVar(&database, "db", "nucleotide", "target database (nucleotide or protein)")
	fetchCmd.Flags().IntVar(&retries, "retries", 3, "attempts per remote call before aborting the run")
	fetchCmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "per-call timeout for remote requests")
	fetchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	fetchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")

	// Pacing flags
	fetchCmd.Flags().IntVar(&batchSize, "batch-size", 20, "identifiers per remote query")
	fetchCmd.Flags().DurationVar(&pause, "pause", 2*time.Minute, "pause inserted when the run exceeds the load threshold")
	fetchCmd.Flags().IntVar(&pauseThreshold, "pause-threshold", 100, "query count above which pauses are inserted")

	// Output flags
	fetchCmd.Flags().StringVar(&outPath, "out", "isolation_sources.csv", "report CSV path")
	fetchCmd.Flags().StringVar(&histogramPath, "histogram", "isolation_sources_stats.csv", "histogram CSV path")
	fetchCmd.Flags().StringVar(&logPath, "log", "", "mirror all diagnostics to this file")
	fetchCmd.Flags().BoolVar(&noReferences, "no-references", false, "omit the REFERENCES column")

	// Cache flags
	fetchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the fetch-response cache")
	fetchCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "cache directory (default: $HOME/.isosrc/cache)")

	_ = viper.BindPFlag("email", fetchCmd.Flags().Lookup("email"))
}

func runFetch(cmd *cobra.Command, args []string) error {
	// Build configuration from flags
	cfg := model.DefaultConfig()
	cfg.Entrez.Email = viper.GetString("email")
	cfg.Entrez.Database = model.Database(database)
	cfg.Entrez.Retries = retries
	cfg.Entrez.Timeout = timeout
	cfg.Entrez.HTTPProxy = httpProxy
	cfg.Entrez.HTTPSProxy = httpsProxy
	cfg.Pacing.BatchSize = batchSize
	cfg.Pacing.Pause = pause
	cfg.Pacing.PauseThreshold = pauseThreshold
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.ReportPath = outPath
	cfg.Output.HistogramPath = histogramPath
	cfg.Output.LogPath = logPath
	cfg.Output.IncludeReferences = !noReferences
	cfg.Output.Verbose = verbose

	if cfg.Entrez.Email == "" {
		return fmt.Errorf("a contact email is required by the remote service's usage policy (--email or ISOSRC_EMAIL)")
	}
	if !cfg.Entrez.Database.Valid() {
		return fmt.Errorf("unknown database %q (expected nucleotide or protein)", database)
	}

	sink, err := echo.New(os.Stderr, cfg.Output.LogPath)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()

	var store cache.Cache
	if cfg.Cache.Enabled {
		dir := cfg.Cache.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("resolve cache dir: %w", err)
			}
			dir = filepath.Join(home, ".isosrc", "cache")
		}
		store = cache.NewLayered(time.Hour, dir, cfg.Cache.TTL)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := entrez.NewClient(cfg.Entrez, store, sink)
	p := pipeline.New(cfg, client, sink)

	summary, err := p.Run(ctx, args)
	if err != nil {
		return err
	}

	sink.Printf("done: %d files, %d records, %d identifiers queried\n",
		summary.Files, summary.Records, summary.Identifiers)
	sink.Printf("wrote %d rows (%d distinct sources) to %s, histogram to %s\n",
		summary.Rows, summary.DistinctSources, cfg.Output.ReportPath, cfg.Output.HistogramPath)
	return nil
}
