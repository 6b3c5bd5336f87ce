package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/domain/search/dsl"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	"github.com/kailas-cloud/shelfdex/internal/metrics"
)

// Engine operations, used as the operation label of engine metrics.
const (
	OpSearch      = "search"
	OpMultiSearch = "msearch"
)

// InstrumentedRepository wraps a Repository with engine timing and
// failure logging.
type InstrumentedRepository struct {
	inner  Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewInstrumentedRepository wraps a repository with observability.
func NewInstrumentedRepository(inner Repository, logger *zap.Logger) *InstrumentedRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedRepository{inner: inner, logger: logger, now: time.Now}
}

// Search delegates to the inner repository and records the call.
func (r *InstrumentedRepository) Search(ctx context.Context, s *dsl.Search) (*result.Set, error) {
	start := r.now()
	set, err := r.inner.Search(ctx, s)
	duration := r.now().Sub(start)
	metrics.SearchEngineDuration.WithLabelValues(OpSearch).Observe(duration.Seconds())

	if err != nil {
		r.logger.Error("Search engine request failed",
			zap.String("operation", OpSearch),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("engine search: %w", err)
	}
	return set, nil
}

// MultiSearch delegates to the inner repository and records the call.
func (r *InstrumentedRepository) MultiSearch(ctx context.Context, ss []*dsl.Search) ([]*result.Set, error) {
	if len(ss) == 0 {
		return nil, nil
	}

	start := r.now()
	sets, err := r.inner.MultiSearch(ctx, ss)
	duration := r.now().Sub(start)
	metrics.SearchEngineDuration.WithLabelValues(OpMultiSearch).Observe(duration.Seconds())

	if err != nil {
		r.logger.Error("Search engine request failed",
			zap.String("operation", OpMultiSearch),
			zap.Int("batch_size", len(ss)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, fmt.Errorf("engine multi search: %w", err)
	}

	r.logger.Debug("Search engine batch completed",
		zap.Int("batch_size", len(ss)),
		zap.Duration("duration", duration),
	)
	return sets, nil
}
