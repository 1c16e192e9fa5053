package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/use-agent/harvest/cache"
	"github.com/use-agent/harvest/cleaner"
	"github.com/use-agent/harvest/export"
	"github.com/use-agent/harvest/llm"
	"github.com/use-agent/harvest/models"
	"github.com/use-agent/harvest/pipeline"
	"github.com/use-agent/harvest/scraper"
	"github.com/use-agent/harvest/session"
	"github.com/use-agent/harvest/store"
)

var (
	runFields            []string
	runModel             string
	runNoScrape          bool
	runPaginate          bool
	runPaginationDetails string
	runMaxTokens         int
	runUseModelMax       bool
	runArtifact          string
	runFormat            string
	runOutput            string
)

var runCmd = &cobra.Command{
	Use:   "run <url>...",
	Short: "Fetch, store and extract listings from the given URLs",
	Long: `Runs one launch in-process: every URL is fetched with the headless
browser and stored in scraped_data, then listings (and optionally
pagination URLs) are extracted with the selected model.

Examples:
  # Extract titles and prices as CSV
  harvestctl run https://example.com/listings -f title -f price --format csv

  # Pagination only, written to a spreadsheet
  harvestctl run https://example.com/listings --no-scrape --paginate \
    --artifact pagination --format xlsx -o pages.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		req := models.LaunchRequest{
			Model:             runModel,
			Fields:            runFields,
			Pagination:        runPaginate,
			PaginationDetails: runPaginationDetails,
			UseModelMax:       runUseModelMax,
		}
		scraping := !runNoScrape
		req.Scraping = &scraping
		if runMaxTokens > 0 {
			req.MaxOutputTokens = &runMaxTokens
		}

		result, err := launch(ctx, args, req)
		if err != nil {
			return err
		}

		write := func(w io.Writer) error {
			return writeArtifact(w, result, runArtifact, runFormat)
		}
		if runOutput == "" {
			return write(os.Stdout)
		}
		f, err := os.Create(runOutput)
		if err != nil {
			return eris.Wrap(err, "run: create output")
		}
		return writeAndClose(f, write)
	},
}

// writeAndClose runs write against wc and closes it. A failed close is
// reported when the write itself succeeded, since buffered bytes may not
// have reached the file.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); cerr != nil && err == nil {
			err = eris.Wrap(cerr, "run: close output")
		}
	}()
	return write(wc)
}

func init() {
	runCmd.Flags().StringSliceVarP(&runFields, "field", "f", nil, "listing field to extract (repeatable or comma-separated)")
	runCmd.Flags().StringVarP(&runModel, "model", "m", "", "extraction model id (default: HARVEST_DEFAULT_MODEL)")
	runCmd.Flags().BoolVar(&runNoScrape, "no-scrape", false, "skip listing extraction")
	runCmd.Flags().BoolVar(&runPaginate, "paginate", false, "detect pagination URLs")
	runCmd.Flags().StringVar(&runPaginationDetails, "pagination-details", "", "free-text hints for pagination detection")
	runCmd.Flags().IntVar(&runMaxTokens, "max-tokens", 0, "output token budget (clamped to the model limit)")
	runCmd.Flags().BoolVar(&runUseModelMax, "use-model-max", false, "use the model's full token limit")
	runCmd.Flags().StringVar(&runArtifact, "artifact", export.ArtifactListings, "what to write: results, listings or pagination")
	runCmd.Flags().StringVar(&runFormat, "format", export.FormatJSON, "output format: json, csv or xlsx")
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "write to this file instead of stdout")
	rootCmd.AddCommand(runCmd)
}

// launch wires the pipeline in-process and runs one launch over urls.
func launch(ctx context.Context, urls []string, req models.LaunchRequest) (*models.RunResult, error) {
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cleaner.NewCleaner())
	if err != nil {
		return nil, eris.Wrap(err, "run: start browser")
	}
	defer sc.Close()

	cc, closeCache, err := cache.Open(ctx, cfg.Cache)
	if err != nil {
		return nil, eris.Wrap(err, "run: open cache")
	}
	defer closeCache()

	stores := store.NewConnector(cfg.Store.MaxConns, cc)
	defer stores.Close()

	runner := pipeline.NewRunner(pipeline.RunnerConfig{
		Content:        sc,
		Extractor:      llm.NewCaller(&http.Client{Timeout: cfg.LLM.Timeout}, cfg.LLM.BaseURLs),
		Stores:         stores,
		EnvCredentials: cfg.Credentials,
		DefaultModel:   cfg.LLM.DefaultModel,
	})

	s := session.New(nil, "")
	s.AddURLs(strings.Join(urls, " "))
	return runner.Launch(ctx, s, req)
}

func writeArtifact(w io.Writer, result *models.RunResult, artifact, format string) error {
	switch artifact {
	case export.ArtifactResults:
		return export.WriteJSON(w, export.Entries(result))
	case export.ArtifactListings:
		if result.Scrape == nil {
			return eris.New("run: listings were not extracted")
		}
		return export.Write(w, export.ListingRows(result.Scrape.Results), format, artifact)
	case export.ArtifactPagination:
		if result.Pagination == nil {
			return eris.New("run: pagination was not requested")
		}
		return export.Write(w, export.PageRows(result.Pagination.Results), format, artifact)
	default:
		return eris.Errorf("run: unknown artifact %q", artifact)
	}
}
