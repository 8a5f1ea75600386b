package cache

import (
	"context"
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// PortfolioDataSource loads the portfolios of one owner, newest first
type PortfolioDataSource interface {
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Portfolio, error)
}

const portfolioKeyPrefix = "portfolios:owner:"

// PortfolioStore is the process-wide view of every owner's portfolios.
// Entries expire after the configured TTL and are reloaded from the data source.
type PortfolioStore struct {
	cache      *gocache.Cache
	dataSource PortfolioDataSource
	ttl        time.Duration

	mu sync.Mutex
	// loads counts in-flight loads per owner; missed holds updates that
	// arrived during them and are merged before the loaded list is cached
	loads  map[string]int
	missed map[string][]*models.Portfolio
}

// NewPortfolioStore creates a store with entries living ttlSeconds
func NewPortfolioStore(dataSource PortfolioDataSource, ttlSeconds int) *PortfolioStore {
	ttl := time.Duration(ttlSeconds) * time.Second
	return &PortfolioStore{
		cache:      gocache.New(ttl, cacheCheckPeriod),
		dataSource: dataSource,
		ttl:        ttl,
		loads:      make(map[string]int),
		missed:     make(map[string][]*models.Portfolio),
	}
}

const cacheCheckPeriod = time.Minute

// List returns the owner's portfolios, loading them on a cache miss
func (ps *PortfolioStore) List(ctx context.Context, ownerID string) ([]*models.Portfolio, error) {
	key := portfolioKeyPrefix + ownerID

	if data, found := ps.cache.Get(key); found {
		if portfolios, ok := data.([]*models.Portfolio); ok {
			metrics.CacheHits.WithLabelValues("portfolios").Inc()
			return portfolios, nil
		}
		ps.cache.Delete(key)
	}
	metrics.CacheMisses.WithLabelValues("portfolios").Inc()

	ps.mu.Lock()
	ps.loads[ownerID]++
	ps.mu.Unlock()

	portfolios, err := ps.dataSource.ListByOwner(ctx, ownerID)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	missed := ps.missed[ownerID]
	if ps.loads[ownerID]--; ps.loads[ownerID] == 0 {
		delete(ps.loads, ownerID)
		delete(ps.missed, ownerID)
	}

	if err != nil {
		logger.Error("Failed to load portfolios", zap.String("owner_id", ownerID), zap.Error(err))
		return nil, err
	}
	if portfolios == nil {
		portfolios = []*models.Portfolio{}
	}
	for _, p := range missed {
		portfolios, _ = upsert(portfolios, p)
	}

	ps.cache.Set(key, portfolios, ps.ttl)
	metrics.CacheSize.WithLabelValues("portfolios").Set(float64(ps.cache.ItemCount()))

	return portfolios, nil
}

// UpdatePortfolio puts a portfolio into its owner's list, replacing an entry
// with the same ID or prepending it. Owners that are not cached are left
// alone; their next List loads the record from the data source.
func (ps *PortfolioStore) UpdatePortfolio(portfolio *models.Portfolio) {
	if portfolio == nil {
		return
	}
	key := portfolioKeyPrefix + portfolio.OwnerID

	ps.mu.Lock()
	defer ps.mu.Unlock()

	// A load in flight would overwrite the cached list with what it read
	if ps.loads[portfolio.OwnerID] > 0 {
		ps.missed[portfolio.OwnerID] = append(ps.missed[portfolio.OwnerID], portfolio)
	}

	data, found := ps.cache.Get(key)
	if !found {
		logger.Debug("Owner not cached, skipping portfolio update",
			zap.String("owner_id", portfolio.OwnerID),
			zap.String("portfolio_id", portfolio.ID))
		return
	}
	current, ok := data.([]*models.Portfolio)
	if !ok {
		ps.cache.Delete(key)
		return
	}

	updated, replaced := upsert(current, portfolio)
	ps.cache.Set(key, updated, ps.ttl)
	logger.Info("Portfolio store updated",
		zap.String("owner_id", portfolio.OwnerID),
		zap.String("portfolio_id", portfolio.ID),
		zap.Bool("replaced", replaced))
}

// upsert returns a copy of list with portfolio replacing the entry with the
// same ID, or prepended when there is none
func upsert(list []*models.Portfolio, portfolio *models.Portfolio) ([]*models.Portfolio, bool) {
	updated := make([]*models.Portfolio, 0, len(list)+1)
	replaced := false
	for _, p := range list {
		if p.ID == portfolio.ID {
			updated = append(updated, portfolio)
			replaced = true
			continue
		}
		updated = append(updated, p)
	}
	if !replaced {
		updated = append([]*models.Portfolio{portfolio}, updated...)
	}
	return updated, replaced
}
