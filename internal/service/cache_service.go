package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
)

const (
	cacheKeyPrefix          = "academic"
	jobTypeCacheInvalidate  = "cache.invalidate"
	attendanceReportSegment = "attendance:section"
	reportCardSegment       = "reportcard"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// invalidationQueue is the subset of jobs.Queue used for deferred invalidation.
type invalidationQueue interface {
	TryEnqueue(job jobs.Job) error
}

// CacheService orchestrates cache operations and related metrics.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
	enabled    bool
	queue      invalidationQueue
}

// NewCacheService constructs a cache service.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger, enabled: enabled}
}

// UseQueue routes invalidations through a background queue.
func (s *CacheService) UseQueue(queue invalidationQueue) {
	if s == nil {
		return
	}
	s.queue = queue
}

// InvalidationHandler returns the job handler that performs queued invalidations.
func (s *CacheService) InvalidationHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		pattern, ok := job.Payload.(string)
		if !ok {
			return fmt.Errorf("unexpected invalidation payload %T", job.Payload)
		}
		return s.Invalidate(ctx, pattern)
	}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Get attempts to retrieve a cached entry. It returns true when the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores the value in cache.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// Invalidate removes cached values for the provided pattern.
func (s *CacheService) Invalidate(ctx context.Context, pattern string) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateAsync schedules an invalidation, falling back to an inline delete
// when no queue is attached or the queue is saturated.
func (s *CacheService) InvalidateAsync(ctx context.Context, pattern string) {
	if !s.Enabled() {
		return
	}
	if s.queue != nil {
		err := s.queue.TryEnqueue(jobs.Job{ID: pattern, Type: jobTypeCacheInvalidate, Payload: pattern})
		if err == nil {
			return
		}
		s.logger.Debug("invalidation queue unavailable, deleting inline", zap.String("pattern", pattern), zap.Error(err))
	}
	_ = s.Invalidate(ctx, pattern)
}

// AttendanceReportKey builds the cache key for a section attendance report.
func AttendanceReportKey(sectionID, periodID string, offeringID *string) string {
	offering := "all"
	if offeringID != nil && *offeringID != "" {
		offering = *offeringID
	}
	return strings.Join([]string{cacheKeyPrefix, attendanceReportSegment, sectionID, periodID, offering}, ":")
}

// AttendanceReportPattern matches every cached report of a section.
func AttendanceReportPattern(sectionID string) string {
	return strings.Join([]string{cacheKeyPrefix, attendanceReportSegment, sectionID, "*"}, ":")
}

// ReportCardKey builds the cache key for a report card.
func ReportCardKey(studentID, termID string) string {
	return strings.Join([]string{cacheKeyPrefix, reportCardSegment, studentID, termID}, ":")
}

// ReportCardPattern matches every cached report card of a student.
func ReportCardPattern(studentID string) string {
	return strings.Join([]string{cacheKeyPrefix, reportCardSegment, studentID, "*"}, ":")
}
