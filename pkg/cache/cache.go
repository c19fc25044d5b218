package cache

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/sentinelsec/guardgate/pkg/common"
	"github.com/sentinelsec/guardgate/pkg/config"
	guardprometheus "github.com/sentinelsec/guardgate/pkg/infra/prometheus"
	"github.com/sentinelsec/guardgate/pkg/types"
)

const reportKeyPattern = "report:%s"

// ReportCache stores computed validation reports in Redis with an in-process
// TTL layer in front. A failing backend never fails the caller: lookups
// degrade to a miss and writes are dropped with a log line.
type ReportCache struct {
	client *redis.Client
	local  *TTLMap
	logger *logrus.Logger
	ttl    time.Duration
}

func NewReportCache(cfg config.RedisConfig, cacheCfg config.CacheConfig, logger *logrus.Logger) *ReportCache {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.TLS {
		options.TLSConfig = &tls.Config{
			InsecureSkipVerify: true, // #nosec G402
		}
	}
	return NewReportCacheWithClient(redis.NewClient(options), cacheCfg, logger)
}

// NewReportCacheWithClient wires an existing client; tests inject redismock
// through here.
func NewReportCacheWithClient(client *redis.Client, cacheCfg config.CacheConfig, logger *logrus.Logger) *ReportCache {
	ttl := time.Duration(cacheCfg.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = common.ReportCacheTTL
	}
	return &ReportCache{
		client: client,
		local:  NewTTLMap(ttl),
		logger: logger,
		ttl:    ttl,
	}
}

// Key derives the cache key for a (text, guardrail) pair. Text is normalized
// so that whitespace-only differences share an entry.
func Key(text, guardrailName string) string {
	normalized := strings.Join(strings.Fields(text), " ")
	sum := sha256.Sum256([]byte(normalized + "\n" + guardrailName))
	return fmt.Sprintf(reportKeyPattern, hex.EncodeToString(sum[:]))
}

// DefaultTTL returns the TTL applied when the request does not override it.
func (c *ReportCache) DefaultTTL() time.Duration {
	return c.ttl
}

// GetReport returns the cached report for key, or (nil, false) on miss or
// backend failure.
func (c *ReportCache) GetReport(ctx context.Context, key string) (*types.ValidationReport, bool) {
	if value, ok := c.local.Get(key); ok {
		if report, ok := value.(*types.ValidationReport); ok {
			guardprometheus.CacheHits.WithLabelValues("local").Inc()
			return cloneReport(report), true
		}
	}

	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("report cache unavailable, falling back to direct validation")
		}
		guardprometheus.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}

	var report types.ValidationReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("discarding undecodable cached report")
		guardprometheus.CacheMisses.WithLabelValues("redis").Inc()
		return nil, false
	}

	guardprometheus.CacheHits.WithLabelValues("redis").Inc()
	c.local.Set(key, cloneReport(&report), c.ttl)
	return &report, true
}

// SetReport stores a report under key with the given TTL (0 means the
// configured default). Backend failures are logged and swallowed.
func (c *ReportCache) SetReport(ctx context.Context, key string, report *types.ValidationReport, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	raw, err := json.Marshal(report)
	if err != nil {
		c.logger.WithError(err).Error("failed to marshal validation report for cache")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := c.client.Set(ctx, key, string(raw), ttl).Err(); err != nil {
		c.logger.WithError(err).Warn("failed to store validation report in cache")
		return
	}
	c.local.Set(key, cloneReport(report), ttl)
}

// Ping reports backend reachability for the health endpoint.
func (c *ReportCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ReportCache) Client() *redis.Client {
	return c.client
}

// cloneReport keeps cached entries isolated from caller mutation.
func cloneReport(in *types.ValidationReport) *types.ValidationReport {
	out := *in
	out.Validations = make([]types.ValidatorOutcome, len(in.Validations))
	copy(out.Validations, in.Validations)
	return &out
}
