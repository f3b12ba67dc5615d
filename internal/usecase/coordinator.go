package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/chemdex/backend/internal/domain"
)

// upsertGrace bounds the terminal upsert after a run's own context has
// already expired; without it a timed-out parse could never record its
// placeholder row.
const upsertGrace = 10 * time.Second

// healthCheckBudget bounds the capability health probe within a run
const healthCheckBudget = 10 * time.Second

// CoordinatorConfig holds auto-parse coordinator configuration
type CoordinatorConfig struct {
	Delay               time.Duration // scheduling delay before a triggered parse runs
	Timeout             time.Duration // per-product parse budget
	BatchDelay          time.Duration // inter-item delay in batch mode
	ConfidenceThreshold float64
}

// Coordinator drives the per-product parse state machine:
// no_sds_url -> pending_parse -> parsed | parse_failed_basic. Every
// triggered parse terminates: failures and timeouts write a placeholder
// metadata row instead of leaving the product pending.
type Coordinator struct {
	products  domain.ProductRepository
	metadata  domain.MetadataRepository
	watchlist domain.WatchlistRepository
	parser    domain.ParserClient
	jobs      *JobStore
	cfg       CoordinatorConfig
}

// NewCoordinator creates an auto-parse coordinator with dependencies
func NewCoordinator(
	products domain.ProductRepository,
	metadata domain.MetadataRepository,
	watchlist domain.WatchlistRepository,
	parser domain.ParserClient,
	jobs *JobStore,
	cfg CoordinatorConfig,
) *Coordinator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	return &Coordinator{
		products:  products,
		metadata:  metadata,
		watchlist: watchlist,
		parser:    parser,
		jobs:      jobs,
		cfg:       cfg,
	}
}

// TriggerParse schedules extraction for a product and returns immediately.
// Without force, an existing metadata row makes this a no-op; with force the
// row is overwritten by the run. The work itself is a detached goroutine,
// optionally delayed to batch bursts of freshly scanned products.
func (c *Coordinator) TriggerParse(ctx context.Context, productID, sdsURL string, force bool) (domain.ParseStatus, error) {
	if productID == "" {
		return "", domain.ErrInvalidRequest
	}

	if sdsURL == "" {
		product, err := c.products.GetByID(ctx, productID)
		if err != nil {
			return "", err
		}
		if product == nil {
			return "", domain.ErrProductNotFound
		}
		sdsURL = product.SDSURL
	}
	if sdsURL == "" {
		return domain.StatusNoSDSURL, nil
	}

	if !force {
		existing, err := c.metadata.Get(ctx, productID)
		if err != nil {
			return "", err
		}
		if existing != nil {
			log.Printf("[COORDINATOR] product %s already parsed, skipping", productID)
			return domain.StatusParsed, nil
		}
	}

	if !c.jobs.Start(productID) {
		log.Printf("[COORDINATOR] parse already in flight for product %s", productID)
		return domain.StatusPending, nil
	}

	go c.execute(productID, sdsURL, c.cfg.Delay)
	return domain.StatusPending, nil
}

// ParseStatus reports where a product sits in the parse lifecycle
func (c *Coordinator) ParseStatus(ctx context.Context, productID string) (domain.ParseStatus, error) {
	if c.jobs.Active(productID) {
		return domain.StatusPending, nil
	}

	meta, err := c.metadata.Get(ctx, productID)
	if err != nil {
		return "", err
	}
	if meta != nil {
		switch meta.Provenance() {
		case domain.ProvenanceParsed, "":
			return domain.StatusParsed, nil
		default:
			return domain.StatusParseFailed, nil
		}
	}

	product, err := c.products.GetByID(ctx, productID)
	if err != nil {
		return "", err
	}
	if product == nil {
		return "", domain.ErrProductNotFound
	}
	if product.SDSURL == "" {
		return domain.StatusNoSDSURL, nil
	}
	return domain.StatusPending, nil
}

// BatchParse queues every product that has an SDS URL but no metadata row.
// Processing is serialized with a fixed inter-item delay so a backlog does
// not flood the extraction capability. Returns the number queued.
func (c *Coordinator) BatchParse(ctx context.Context) (int, error) {
	eligible, err := c.products.ListUnparsed(ctx)
	if err != nil {
		return 0, err
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	queued := make([]domain.Product, 0, len(eligible))
	for _, p := range eligible {
		if p.SDSURL == "" || !c.jobs.Start(p.ID) {
			continue
		}
		queued = append(queued, p)
	}

	go func() {
		for i, p := range queued {
			if i > 0 && c.cfg.BatchDelay > 0 {
				time.Sleep(c.cfg.BatchDelay)
			}
			c.execute(p.ID, p.SDSURL, 0)
		}
	}()

	log.Printf("[COORDINATOR] batch queued %d of %d eligible products", len(queued), len(eligible))
	return len(queued), nil
}

// execute is one timed parse run. The parse goroutine and the timeout race
// into a single-assignment cell; whichever writes first decides the outcome,
// and the terminal upsert happens exactly once.
func (c *Coordinator) execute(productID, sdsURL string, delay time.Duration) {
	defer c.jobs.Finish(productID)

	if delay > 0 {
		time.Sleep(delay)
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.Timeout)
	defer cancel()

	cell := NewResultCell[*domain.SDSMetadata]()
	go func() {
		cell.Set(c.parseOnce(ctx, productID, sdsURL))
	}()

	select {
	case <-cell.Done():
	case <-ctx.Done():
		cell.Set(placeholderMetadata(productID, domain.ProvenanceUnavailable, ctx.Err()))
	}
	meta := cell.Value()

	upsertCtx, cancelUpsert := context.WithTimeout(context.Background(), upsertGrace)
	defer cancelUpsert()

	if err := c.metadata.Upsert(upsertCtx, meta); err != nil {
		log.Printf("[COORDINATOR] upserting metadata for product %s failed: %v", productID, err)
		return
	}

	provenance := meta.Provenance()
	log.Printf("[COORDINATOR] product %s reached terminal state: %s", productID, provenance)

	if provenance != domain.ProvenanceParsed {
		return
	}

	fields := domain.HazardFields{
		SDSAvailable:       true,
		HazardousSubstance: meta.HazardousSubstance,
		DangerousGood:      meta.DangerousGood,
		PackingGroup:       meta.PackingGroup,
	}
	if err := c.watchlist.UpdateHazardFields(upsertCtx, productID, fields); err != nil {
		log.Printf("[COORDINATOR] watchlist update for product %s failed: %v", productID, err)
	}
}

// parseOnce runs health check then parse, mapping every failure onto a
// placeholder row so the caller always has something terminal to store
func (c *Coordinator) parseOnce(ctx context.Context, productID, sdsURL string) *domain.SDSMetadata {
	healthCtx, cancel := context.WithTimeout(ctx, healthCheckBudget)
	err := c.parser.HealthCheck(healthCtx)
	cancel()
	if err != nil {
		log.Printf("[COORDINATOR] extraction capability unavailable: %v", err)
		return placeholderMetadata(productID, domain.ProvenanceUnavailable, err)
	}

	result, err := c.parser.Parse(ctx, productID, sdsURL)
	if err != nil {
		provenance := domain.ProvenanceParseFailed
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
			errors.Is(err, domain.ErrParserUnavailable) {
			provenance = domain.ProvenanceUnavailable
		}
		log.Printf("[COORDINATOR] parsing %s for product %s failed: %v", sdsURL, productID, err)
		return placeholderMetadata(productID, provenance, err)
	}

	return BuildMetadata(productID, result, c.cfg.ConfidenceThreshold)
}

// placeholderMetadata builds the field-empty terminal row recording that
// parsing concluded without usable data. The provenance marker tells a later
// forced re-parse why the row is empty.
func placeholderMetadata(productID, provenance string, cause error) *domain.SDSMetadata {
	raw := map[string]interface{}{"provenance": provenance}
	if cause != nil {
		raw["error"] = cause.Error()
	}
	return &domain.SDSMetadata{
		ProductID: productID,
		RawJSON:   raw,
	}
}
