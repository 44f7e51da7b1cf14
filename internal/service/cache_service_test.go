package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
	"github.com/noah-isme/sma-academic-core/pkg/jobs"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	failGet error
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.failGet != nil {
		return m.failGet
	}
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) TryEnqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func TestCacheServiceHitMissAndMetrics(t *testing.T) {
	metrics := NewMetricsService()
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()
	key := AttendanceReportKey("SEC-A", "P", nil)

	var out map[string]int
	hit, err := svc.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, key, map[string]int{"at_risk": 2}, 0))
	hit, err = svc.Get(ctx, key, &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 2, out["at_risk"])

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheLookups.WithLabelValues("miss")))

	repo.failGet = errors.New("connection refused")
	_, err = svc.Get(ctx, key, &out)
	require.Error(t, err)
}

func TestCacheServiceDisabledIsNoop(t *testing.T) {
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	svc := NewCacheService(repo, nil, time.Minute, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Empty(t, repo.entries)

	var nilSvc *CacheService
	hit, err := nilSvc.Get(context.Background(), "k", new(int))
	require.NoError(t, err)
	assert.False(t, hit)
	nilSvc.InvalidateAsync(context.Background(), "k*")
}

func TestCacheServiceInvalidateAsync(t *testing.T) {
	repo := &memoryCacheRepo{entries: map[string][]byte{}}
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	require.NoError(t, svc.Set(ctx, ReportCardKey("stu-1", "T1"), 1, 0))
	require.NoError(t, svc.Set(ctx, ReportCardKey("stu-2", "T1"), 1, 0))

	queue := &queueStub{}
	svc.UseQueue(queue)
	svc.InvalidateAsync(ctx, ReportCardPattern("stu-1"))
	require.Len(t, queue.jobs, 1)
	assert.Len(t, repo.entries, 2)

	require.NoError(t, svc.InvalidationHandler()(ctx, queue.jobs[0]))
	assert.NotContains(t, repo.entries, ReportCardKey("stu-1", "T1"))
	assert.Contains(t, repo.entries, ReportCardKey("stu-2", "T1"))

	queue.err = jobs.ErrQueueFull
	svc.InvalidateAsync(ctx, ReportCardPattern("*"))
	assert.Empty(t, repo.entries)

	require.Error(t, svc.InvalidationHandler()(ctx, jobs.Job{Payload: 42}))
}

func TestCacheKeysAreScoped(t *testing.T) {
	assert.Equal(t, "academic:attendance:section:SEC-A:P:all", AttendanceReportKey("SEC-A", "P", nil))
	assert.Equal(t, "academic:attendance:section:SEC-A:P:OFF-1", AttendanceReportKey("SEC-A", "P", strPtr("OFF-1")))
	assert.True(t, strings.HasPrefix(AttendanceReportKey("SEC-A", "P", nil), strings.TrimSuffix(AttendanceReportPattern("SEC-A"), "*")))
	assert.Equal(t, "academic:reportcard:stu-1:*", ReportCardPattern("stu-1"))
}
