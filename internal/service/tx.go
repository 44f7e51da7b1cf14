package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-academic-core/internal/models"
	"github.com/noah-isme/sma-academic-core/pkg/database"
	appErrors "github.com/noah-isme/sma-academic-core/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// runInTx executes fn in one transaction. Domain errors returned by fn pass
// through untouched; storage races surface as ErrRetryable.
func runInTx(ctx context.Context, provider txProvider, metrics *MetricsService, operation string, fn func(tx *sqlx.Tx) error) error {
	if provider == nil {
		return appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	label := strings.ReplaceAll(operation, " ", "_")
	start := time.Now()
	err := database.WithTx(ctx, provider, nil, fn)
	metrics.ObserveDBQuery(label, time.Since(start))
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if database.IsExclusionViolation(err) || database.IsUniqueViolation(err) || database.IsRetryable(err) {
		metrics.RecordRetryableFailure(label)
		return appErrors.Wrap(err, appErrors.ErrRetryable.Code, appErrors.ErrRetryable.Status, appErrors.ErrRetryable.Message)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+operation)
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func pageMeta(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
