// Command sdsctl is the operations CLI: resolve a product's safety data
// sheet, parse a document to structured fields, or kick off a batch parse on
// a running server. The resolve and parse commands run the full local stack
// without touching the database, which makes them handy for tuning the
// extractor against problem documents.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chemdex/backend/config"
	"github.com/chemdex/backend/internal/domain"
	"github.com/chemdex/backend/internal/infrastructure/cache"
	"github.com/chemdex/backend/internal/infrastructure/extract"
	"github.com/chemdex/backend/internal/infrastructure/parser"
	"github.com/chemdex/backend/internal/infrastructure/probe"
	"github.com/chemdex/backend/internal/infrastructure/search"
	"github.com/chemdex/backend/internal/usecase"
)

var (
	flagName    string
	flagSize    string
	flagBarcode string
	flagURL     string
	flagFile    string
	flagServer  string
)

var rootCmd = &cobra.Command{
	Use:   "sdsctl",
	Short: "ChemDex SDS operations tool",
	Long: `sdsctl drives the SDS discovery and extraction pipeline from the command
line.

Examples:
  sdsctl resolve --name "Whiteboard Cleaner" --size 500ml
  sdsctl resolve --barcode 9312345678901
  sdsctl parse --url https://chemsupplier.com.au/sds/cleaner.pdf
  sdsctl parse --file ./cleaner.pdf --name "Whiteboard Cleaner"
  sdsctl batch --server http://localhost:8080`,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Discover and verify a product's SDS URL",
	RunE:  runResolve,
}

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract structured fields from an SDS document",
	RunE:  runParse,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Trigger a batch parse on a running server",
	RunE:  runBatch,
}

func init() {
	resolveCmd.Flags().StringVar(&flagName, "name", "", "product name")
	resolveCmd.Flags().StringVar(&flagSize, "size", "", "product size (e.g. 5L)")
	resolveCmd.Flags().StringVar(&flagBarcode, "barcode", "", "product barcode (used when no name is known)")

	parseCmd.Flags().StringVar(&flagURL, "url", "", "document URL to parse")
	parseCmd.Flags().StringVar(&flagFile, "file", "", "local PDF file to parse")
	parseCmd.Flags().StringVar(&flagName, "name", "", "product name, enables verification output")

	batchCmd.Flags().StringVar(&flagServer, "server", "http://localhost:8080", "server base URL")

	rootCmd.AddCommand(resolveCmd, parseCmd, batchCmd)

	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildStack wires the discovery and extraction stack from configuration,
// the same graph the server uses minus persistence
func buildStack(cfg *config.Config) (*usecase.DiscoveryService, domain.ParserClient, func()) {
	memoryCache := cache.NewMemoryCache()

	var backends []domain.SearchBackend
	if cfg.Search.GoogleAPIKey != "" && cfg.Search.GoogleCX != "" {
		backends = append(backends, search.NewGoogleClient(
			cfg.Search.GoogleAPIKey, cfg.Search.GoogleCX,
			cfg.Search.GoogleBaseURL, cfg.Search.RequestTimeout))
	}
	backends = append(backends,
		search.NewDuckDuckGoClient(cfg.Search.RequestTimeout),
		search.NewMojeekClient(cfg.Search.RequestTimeout),
	)

	classifier := probe.NewClassifier(cfg.Probe.Timeout, cfg.Probe.MaxRedirects, cfg.Probe.SniffBytes)
	expander := search.NewPageExpander(cfg.Search.RequestTimeout, cfg.Search.ExpandLinks)
	scorer := usecase.NewCandidateScorer(cfg.Scoring.RegionSuffixes, false)

	extractor := extract.NewExtractor(extract.Config{
		Pdftoppm:     cfg.Extract.OCR.Pdftoppm,
		Tesseract:    cfg.Extract.OCR.Tesseract,
		Language:     cfg.Extract.OCR.Language,
		DPI:          cfg.Extract.OCR.DPI,
		PSM:          cfg.Extract.OCR.PSM,
		MaxPages:     cfg.Extract.MaxPages,
		MinTextChars: cfg.Extract.MinTextChars,
	})
	fieldExtractor := usecase.NewFieldExtractor(cfg.Parser.ConfidenceThreshold)
	verifier := usecase.NewVerificationService()
	parserClient := parser.NewLocal(classifier, extractor, fieldExtractor, verifier, parser.LocalConfig{
		DownloadTimeout: cfg.Extract.Timeout,
		MaxDownload:     cfg.Extract.MaxDownload,
	})

	// no product repository here: the CLI stack never writes back
	discovery := usecase.NewDiscoveryService(
		memoryCache, nil, backends, expander, scorer, classifier, parserClient,
		usecase.DiscoveryServiceConfig{
			CacheTTL:    cfg.Cache.TTL,
			ExpandPages: cfg.Search.ExpandPages,
		},
	)

	return discovery, parserClient, memoryCache.Stop
}

func runResolve(cmd *cobra.Command, args []string) error {
	if flagName == "" && flagBarcode == "" {
		return fmt.Errorf("either --name or --barcode is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	discovery, _, stop := buildStack(cfg)
	defer stop()

	ctx := context.Background()

	name := flagName
	size := flagSize
	if name == "" {
		found := discovery.DiscoverByBarcode(ctx, flagBarcode)
		if found.Name == "" {
			return printJSON(found)
		}
		fmt.Fprintf(os.Stderr, "identified product: %q (size %q)\n", found.Name, found.Size)
		name = found.Name
		if size == "" {
			size = found.Size
		}
	}

	return printJSON(discovery.ResolveSDS(ctx, name, size))
}

func runParse(cmd *cobra.Command, args []string) error {
	if (flagURL == "") == (flagFile == "") {
		return fmt.Errorf("exactly one of --url or --file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()

	if flagURL != "" {
		_, parserClient, stop := buildStack(cfg)
		defer stop()

		result, err := parserClient.Parse(ctx, "", flagURL)
		if err != nil {
			return err
		}
		return printJSON(result)
	}

	data, err := os.ReadFile(flagFile)
	if err != nil {
		return fmt.Errorf("reading %s: %w", flagFile, err)
	}

	extractor := extract.NewExtractor(extract.Config{
		Pdftoppm:     cfg.Extract.OCR.Pdftoppm,
		Tesseract:    cfg.Extract.OCR.Tesseract,
		Language:     cfg.Extract.OCR.Language,
		DPI:          cfg.Extract.OCR.DPI,
		PSM:          cfg.Extract.OCR.PSM,
		MaxPages:     cfg.Extract.MaxPages,
		MinTextChars: cfg.Extract.MinTextChars,
	})
	extracted, err := extractor.Extract(ctx, data)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	fmt.Fprintf(os.Stderr, "extracted %d chars via %s\n", len(extracted.Text), extracted.Method)

	if flagName != "" {
		verdict := usecase.NewVerificationService().Verify(flagFile, extracted.Text, flagName, true)
		fmt.Fprintf(os.Stderr, "verification: verified=%v terms=%d\n",
			verdict.Verified, len(verdict.MatchedTerms))
	}

	result := usecase.NewFieldExtractor(cfg.Parser.ConfidenceThreshold).Parse(extracted.Text)
	result.Method = extracted.Method
	return printJSON(result)
}

func runBatch(cmd *cobra.Command, args []string) error {
	url := strings.TrimRight(flagServer, "/") + "/api/v1/sds/batch"
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		return fmt.Errorf("calling %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %d", url, resp.StatusCode)
	}

	var out map[string]int
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	fmt.Printf("queued %d products\n", out["queued"])
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
