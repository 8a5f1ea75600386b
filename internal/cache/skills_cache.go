package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/getmentor/portfolio-api/internal/models"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"github.com/getmentor/portfolio-api/pkg/metrics"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// SkillDataSource loads the skill vocabulary
type SkillDataSource interface {
	GetAllSkills(ctx context.Context) ([]models.Skill, error)
}

const (
	skillsCacheKey = "skills"
	skillsCacheTTL = 24 * time.Hour
)

// SkillsCache keeps the selectable skills in memory
type SkillsCache struct {
	cache      *gocache.Cache
	dataSource SkillDataSource
	mu         sync.RWMutex
	ready      bool
}

// NewSkillsCache creates a new skills cache
func NewSkillsCache(dataSource SkillDataSource) *SkillsCache {
	return &SkillsCache{
		cache:      gocache.New(skillsCacheTTL, time.Hour),
		dataSource: dataSource,
	}
}

// Initialize performs initial cache population (synchronous, blocks until ready)
// Should be called during application startup before accepting requests
func (sc *SkillsCache) Initialize(ctx context.Context) error {
	logger.Info("Initializing skills cache...")
	if _, err := sc.refresh(ctx); err != nil {
		logger.Error("Failed to initialize skills cache", zap.Error(err))
		return err
	}

	sc.mu.Lock()
	sc.ready = true
	sc.mu.Unlock()

	logger.Info("Skills cache initialized successfully")
	return nil
}

// IsReady returns true if the cache has been successfully initialized
func (sc *SkillsCache) IsReady() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.ready
}

// Get retrieves skills from cache or fetches them on a miss
func (sc *SkillsCache) Get(ctx context.Context) ([]models.Skill, error) {
	if !sc.IsReady() {
		return nil, fmt.Errorf("skills cache not initialized")
	}

	if data, found := sc.cache.Get(skillsCacheKey); found {
		skills, ok := data.([]models.Skill)
		if ok {
			metrics.CacheHits.WithLabelValues("skills").Inc()
			return skills, nil
		}
		logger.Error("Invalid skills cache data type")
		sc.cache.Delete(skillsCacheKey)
	}

	metrics.CacheMisses.WithLabelValues("skills").Inc()
	logger.Info("Skills cache miss, fetching from database")
	return sc.refresh(ctx)
}

// Contains reports whether value is a known skill
func (sc *SkillsCache) Contains(ctx context.Context, value string) (bool, error) {
	skills, err := sc.Get(ctx)
	if err != nil {
		return false, err
	}
	for _, skill := range skills {
		if skill.Value == value {
			return true, nil
		}
	}
	return false, nil
}

func (sc *SkillsCache) refresh(ctx context.Context) ([]models.Skill, error) {
	skills, err := sc.dataSource.GetAllSkills(ctx)
	if err != nil {
		logger.Error("Failed to refresh skills cache", zap.Error(err))
		return nil, err
	}

	sc.cache.Set(skillsCacheKey, skills, skillsCacheTTL)
	metrics.CacheSize.WithLabelValues("skills").Set(float64(len(skills)))

	logger.Info("Skills cache refreshed", zap.Int("count", len(skills)))
	return skills, nil
}
