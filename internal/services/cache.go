package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/BusselW/DDH3/internal/logger"
	"github.com/BusselW/DDH3/internal/models"
)

const (
	// DefaultCacheTTL is how long a joined view stays fresh.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheWaitTimeout bounds how long a caller waits on a load.
	DefaultCacheWaitTimeout = 30 * time.Second

	dashboardKey = "dashboard"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddh_dashboard_cache_hits_total",
		Help: "Dashboard fetches served from a fresh cache entry",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddh_dashboard_cache_misses_total",
		Help: "Dashboard fetches that had to wait for a load",
	})
	cacheLoads = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddh_dashboard_cache_loads_total",
		Help: "Joins started by the dashboard cache",
	})
	cacheLoadFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddh_dashboard_cache_load_failures_total",
		Help: "Joins that failed",
	})
	cacheWaitTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ddh_dashboard_cache_wait_timeouts_total",
		Help: "Callers that gave up waiting for a load",
	})
	cacheLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ddh_dashboard_cache_load_duration_seconds",
		Help:    "Duration of dashboard joins in seconds",
		Buckets: prometheus.DefBuckets,
	})
)

// CacheStatus is a snapshot of the dashboard cache for diagnostics.
type CacheStatus struct {
	LastFetch     *time.Time `json:"lastFetch"`
	CacheAgeMs    int64      `json:"cacheAgeMs"`
	TTLMs         int64      `json:"ttlMs"`
	Waiters       int        `json:"waiters"`
	HasCachedData bool       `json:"hasCachedData"`
	IsValid       bool       `json:"isValid"`
	IsLoading     bool       `json:"isLoading"`
}

// CacheOptions tunes a DashboardCache. Zero values take the defaults.
type CacheOptions struct {
	TTL         time.Duration
	WaitTimeout time.Duration
	Now         func() time.Time
}

// DashboardCache memoizes the joined location view under a single key.
// At most one join runs at a time; concurrent callers share its outcome.
type DashboardCache struct {
	joiner      Joiner
	ttl         time.Duration
	waitTimeout time.Duration
	now         func() time.Time
	log         *logger.Logger
	group       singleflight.Group

	mu         sync.Mutex
	data       []models.Location
	fetchedAt  time.Time
	hasData    bool
	generation uint64
	inflight   int
	waiters    int
}

// NewDashboardCache creates an empty cache in front of joiner.
func NewDashboardCache(joiner Joiner, opts CacheOptions, log *logger.Logger) *DashboardCache {
	if opts.TTL <= 0 {
		opts.TTL = DefaultCacheTTL
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultCacheWaitTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &DashboardCache{
		joiner:      joiner,
		ttl:         opts.TTL,
		waitTimeout: opts.WaitTimeout,
		now:         opts.Now,
		log:         log.Component("dashboard_cache"),
	}
}

// Fetch returns the joined view. A fresh entry is returned without calling
// the joiner unless forceRefresh is set. Otherwise the caller waits for the
// single in-flight join, starting one if none is running. A caller that
// arrives after Invalidate never receives the result of a join that started
// before it; it waits for that join and then for the next one. The join
// runs detached from ctx: a caller that times out or is cancelled does not
// abort it, and its result is still stored.
func (c *DashboardCache) Fetch(ctx context.Context, forceRefresh bool) ([]models.Location, error) {
	c.mu.Lock()
	if !forceRefresh && c.validLocked() {
		data := c.data
		c.mu.Unlock()
		cacheHits.Inc()
		return data, nil
	}

	cacheMisses.Inc()
	c.waiters++
	minGen := c.generation
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.waiters--
		c.mu.Unlock()
	}()

	loadCtx := context.WithoutCancel(ctx)
	timer := time.NewTimer(c.waitTimeout)
	defer timer.Stop()

	for {
		ch := c.group.DoChan(dashboardKey, func() (interface{}, error) {
			return c.load(loadCtx)
		})

		select {
		case res := <-ch:
			if res.Err != nil {
				return nil, res.Err
			}
			out := res.Val.(loadResult)
			if out.gen < minGen {
				// Started before an invalidation this caller must observe.
				continue
			}
			return out.data, nil
		case <-timer.C:
			cacheWaitTimeouts.Inc()
			c.log.Warn("Gave up waiting for dashboard load", map[string]interface{}{
				"wait_timeout": c.waitTimeout.String(),
			})
			return nil, fmt.Errorf("%w after %s", models.ErrTimeout, c.waitTimeout)
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// loadResult is a joined view tagged with the generation its load started in.
type loadResult struct {
	data []models.Location
	gen  uint64
}

// load runs one join and stores its result unless the cache was
// invalidated while the join was running. The entry is stamped with the
// time the join started.
func (c *DashboardCache) load(ctx context.Context) (loadResult, error) {
	c.mu.Lock()
	gen := c.generation
	startedAt := c.now()
	c.inflight++
	c.mu.Unlock()

	cacheLoads.Inc()
	start := time.Now()
	data, err := c.joiner.Join(ctx)
	elapsed := time.Since(start)
	cacheLoadDuration.Observe(elapsed.Seconds())

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--

	if err != nil {
		cacheLoadFailures.Inc()
		c.log.Error("Dashboard load failed", err, map[string]interface{}{
			"duration_ms": elapsed.Milliseconds(),
		})
		return loadResult{}, err
	}

	if gen != c.generation {
		c.log.Debug("Discarding load that finished after invalidation", nil)
		return loadResult{data: data, gen: gen}, nil
	}
	c.data = data
	c.fetchedAt = startedAt
	c.hasData = true
	c.log.Info("Dashboard data loaded", map[string]interface{}{
		"locations":   len(data),
		"duration_ms": elapsed.Milliseconds(),
	})
	return loadResult{data: data, gen: gen}, nil
}

// Invalidate drops the cached entry. The next Fetch reloads.
func (c *DashboardCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = nil
	c.hasData = false
	c.fetchedAt = time.Time{}
	c.generation++
}

// Status returns a snapshot of the cache state.
func (c *DashboardCache) Status() CacheStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := CacheStatus{
		TTLMs:         c.ttl.Milliseconds(),
		Waiters:       c.waiters,
		HasCachedData: c.hasData,
		IsValid:       c.validLocked(),
		IsLoading:     c.inflight > 0,
	}
	if c.hasData {
		fetched := c.fetchedAt
		st.LastFetch = &fetched
		st.CacheAgeMs = c.now().Sub(fetched).Milliseconds()
	}
	return st
}

func (c *DashboardCache) validLocked() bool {
	return c.hasData && c.now().Sub(c.fetchedAt) < c.ttl
}
