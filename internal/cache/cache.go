// Package cache provides the persistent form-template cache. Previously
// learned ATS field layouts let repeat visits skip the expensive AI analysis
// path. Entries expire by TTL and are evicted after repeated fill failures;
// both checks happen lazily on access rather than in a background sweep.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/form-autofill/internal/types"
)

// Config holds cache tuning knobs.
type Config struct {
	TTL           time.Duration
	FailThreshold int
}

// DefaultConfig returns the production cache settings.
func DefaultConfig() *Config {
	return &Config{
		TTL:           types.DefaultTemplateTTL,
		FailThreshold: types.DefaultFailThreshold,
	}
}

// TemplateCache owns all CachedTemplate entries. It is the single writer of
// the persisted template map: no other component mutates cached templates.
//
// All operations are best-effort. Storage failures degrade to a cache miss
// or a no-op instead of propagating: the autofill flow must fall back to the
// non-cached path rather than fail outright.
type TemplateCache struct {
	store  Store
	cfg    *Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates a template cache over the given store.
func New(store Store, cfg *Config, logger *zap.Logger) *TemplateCache {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.TTL == 0 {
		cfg.TTL = types.DefaultTemplateTTL
	}
	if cfg.FailThreshold == 0 {
		cfg.FailThreshold = types.DefaultFailThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateCache{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the cached template for key, or nil when the entry is absent,
// TTL-expired, or over the failure threshold. Expired and over-threshold
// entries are deleted as a side effect of the lookup, which keeps storage
// bounded without background work.
func (c *TemplateCache) Get(ctx context.Context, key string) *types.CachedTemplate {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil
	}

	tmpl, ok := templates[key]
	if !ok {
		return nil
	}

	if tmpl.Expired(c.cfg.TTL, c.now()) || tmpl.OverThreshold(c.cfg.FailThreshold) {
		delete(templates, key)
		if err := c.store.Save(ctx, templates); err != nil {
			c.logger.Debug("lazy eviction save failed", zap.String("key", key), zap.Error(err))
		}
		return nil
	}

	return &tmpl
}

// Put stores a fresh template for key, overwriting any existing entry.
// Callers pass structural shapes only; runtime attributes (suggested values,
// confidence, notes) must already be stripped, and FieldShape cannot carry
// them. FailCount is reset and CreatedAt set to now.
func (c *TemplateCache) Put(ctx context.Context, key string, fields []types.FieldShape) {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, skipping put", zap.String("key", key), zap.Error(err))
		return
	}

	templates[key] = types.CachedTemplate{
		Key:       key,
		Fields:    fields,
		CreatedAt: c.now(),
		FailCount: 0,
	}
	if err := c.store.Save(ctx, templates); err != nil {
		c.logger.Debug("template cache save failed", zap.String("key", key), zap.Error(err))
	}
}

// IncrementFail bumps the failure counter for key. Reaching the threshold
// deletes the entry immediately so no later read can see an untrustworthy
// template; this is the eviction trigger, not the Get-time check.
func (c *TemplateCache) IncrementFail(ctx context.Context, key string) {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, skipping fail increment", zap.String("key", key), zap.Error(err))
		return
	}

	tmpl, ok := templates[key]
	if !ok {
		return
	}

	tmpl.FailCount++
	if tmpl.FailCount >= c.cfg.FailThreshold {
		delete(templates, key)
		c.logger.Debug("template evicted after repeated failures",
			zap.String("key", key), zap.Int("fail_count", tmpl.FailCount))
	} else {
		templates[key] = tmpl
	}

	if err := c.store.Save(ctx, templates); err != nil {
		c.logger.Debug("template cache save failed", zap.String("key", key), zap.Error(err))
	}
}

// ResetFail clears the failure counter for key, called when a cached
// template produced a successful fill.
func (c *TemplateCache) ResetFail(ctx context.Context, key string) {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, skipping fail reset", zap.String("key", key), zap.Error(err))
		return
	}

	tmpl, ok := templates[key]
	if !ok || tmpl.FailCount == 0 {
		return
	}

	tmpl.FailCount = 0
	templates[key] = tmpl
	if err := c.store.Save(ctx, templates); err != nil {
		c.logger.Debug("template cache save failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate removes the entry for key.
func (c *TemplateCache) Invalidate(ctx context.Context, key string) {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, skipping invalidate", zap.String("key", key), zap.Error(err))
		return
	}

	if _, ok := templates[key]; !ok {
		return
	}

	delete(templates, key)
	if err := c.store.Save(ctx, templates); err != nil {
		c.logger.Debug("template cache save failed", zap.String("key", key), zap.Error(err))
	}
}

// Clear removes every cached template, for a user-triggered cache reset.
func (c *TemplateCache) Clear(ctx context.Context) {
	if err := c.store.Save(ctx, make(map[string]types.CachedTemplate)); err != nil {
		c.logger.Debug("template cache clear failed", zap.Error(err))
	}
}

// List returns all live templates, applying the same lazy eviction as Get.
// Used by the cache admin surfaces.
func (c *TemplateCache) List(ctx context.Context) []types.CachedTemplate {
	templates, err := c.store.Load(ctx)
	if err != nil {
		c.logger.Debug("template cache load failed, returning empty list", zap.Error(err))
		return nil
	}

	evicted := false
	var out []types.CachedTemplate
	for key, tmpl := range templates {
		if tmpl.Expired(c.cfg.TTL, c.now()) || tmpl.OverThreshold(c.cfg.FailThreshold) {
			delete(templates, key)
			evicted = true
			continue
		}
		out = append(out, tmpl)
	}

	if evicted {
		if err := c.store.Save(ctx, templates); err != nil {
			c.logger.Debug("lazy eviction save failed", zap.Error(err))
		}
	}
	return out
}
