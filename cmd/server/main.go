package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chemdex/backend/config"
	httpDelivery "github.com/chemdex/backend/internal/delivery/http"
	"github.com/chemdex/backend/internal/domain"
	"github.com/chemdex/backend/internal/infrastructure/cache"
	"github.com/chemdex/backend/internal/infrastructure/extract"
	"github.com/chemdex/backend/internal/infrastructure/parser"
	"github.com/chemdex/backend/internal/infrastructure/postgres"
	"github.com/chemdex/backend/internal/infrastructure/probe"
	"github.com/chemdex/backend/internal/infrastructure/search"
	"github.com/chemdex/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting ChemDex Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Persistence collaborator
	pool, err := postgres.Connect(context.Background(), cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepo(pool)
	metadataRepo := postgres.NewMetadataRepo(pool)
	watchlistRepo := postgres.NewWatchlistRepo(pool)

	// Discovery cache: injected with bounded lifetime, never a singleton
	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Stop()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	// Search backends in failover order: API first, scraped fallbacks after
	var backends []domain.SearchBackend
	if cfg.Search.GoogleAPIKey != "" && cfg.Search.GoogleCX != "" {
		googleClient := search.NewGoogleClient(
			cfg.Search.GoogleAPIKey, cfg.Search.GoogleCX,
			cfg.Search.GoogleBaseURL, cfg.Search.RequestTimeout)
		if cfg.Server.Environment == "development" {
			googleClient.SetDebug(true)
		}
		backends = append(backends, googleClient)
		log.Printf("Search: Google Custom Search configured (key: %s...)", maskKey(cfg.Search.GoogleAPIKey))
	} else {
		log.Printf("WARNING: Google Custom Search not configured, relying on scraped backends")
	}
	backends = append(backends,
		search.NewDuckDuckGoClient(cfg.Search.RequestTimeout),
		search.NewMojeekClient(cfg.Search.RequestTimeout),
	)

	classifier := probe.NewClassifier(cfg.Probe.Timeout, cfg.Probe.MaxRedirects, cfg.Probe.SniffBytes)
	expander := search.NewPageExpander(cfg.Search.RequestTimeout, cfg.Search.ExpandLinks)
	scorer := usecase.NewCandidateScorer(cfg.Scoring.RegionSuffixes, cfg.Server.Environment == "development")

	// Extraction capability: in-process or remote service
	var parserClient domain.ParserClient
	switch cfg.Parser.Mode {
	case "remote":
		parserClient = parser.NewRemote(cfg.Parser.RemoteURL, cfg.Parser.RemoteTimeout)
		log.Printf("Parser: remote service at %s", cfg.Parser.RemoteURL)
	default:
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
		parserClient = parser.NewLocal(classifier, extractor, fieldExtractor, verifier, parser.LocalConfig{
			DownloadTimeout: cfg.Extract.Timeout,
			MaxDownload:     cfg.Extract.MaxDownload,
		})
		log.Printf("Parser: local (in-process), threshold=%.2f", cfg.Parser.ConfidenceThreshold)
	}

	// Usecase layer
	discoveryService := usecase.NewDiscoveryService(
		memoryCache, productRepo, backends, expander, scorer, classifier, parserClient,
		usecase.DiscoveryServiceConfig{
			CacheTTL:    cfg.Cache.TTL,
			ExpandPages: cfg.Search.ExpandPages,
		},
	)

	jobs := usecase.NewJobStore(cfg.AutoParse.Timeout * 2)
	defer jobs.Stop()

	coordinator := usecase.NewCoordinator(
		productRepo, metadataRepo, watchlistRepo, parserClient, jobs,
		usecase.CoordinatorConfig{
			Delay:               cfg.AutoParse.Delay,
			Timeout:             cfg.AutoParse.Timeout,
			BatchDelay:          cfg.AutoParse.BatchDelay,
			ConfidenceThreshold: cfg.Parser.ConfidenceThreshold,
		},
	)
	log.Printf("Auto-parse: delay=%s timeout=%s batch_delay=%s",
		cfg.AutoParse.Delay, cfg.AutoParse.Timeout, cfg.AutoParse.BatchDelay)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(discoveryService, coordinator, parserClient)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// maskKey keeps only a short prefix of a credential for logging
func maskKey(key string) string {
	if len(key) > 8 {
		return key[:8]
	}
	return key
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
