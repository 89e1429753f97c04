package sampler

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/logging"
	"github.com/ekaya-inc/pgdrift/pkg/models"
)

// ProductionMaxPercent caps TABLESAMPLE in production mode.
const ProductionMaxPercent = 1.0

// ProgressFunc receives the running number of documents read.
type ProgressFunc func(rows uint64)

// Options control how a Sampler executes its strategy.
type Options struct {
	ProductionMode bool
	Progress       ProgressFunc
	Logger         *zap.Logger
}

// Sampler executes one strategy for one analysis run.
type Sampler struct {
	strategy Strategy
	progress ProgressFunc
	logger   *zap.Logger
}

// New builds a Sampler. In production mode a TABLESAMPLE percentage above
// ProductionMaxPercent is reduced to it and a warning is logged.
func New(strategy Strategy, opts Options) *Sampler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("sampler")

	if ts, ok := strategy.(TableSample); ok && opts.ProductionMode && ts.Percentage > ProductionMaxPercent {
		logger.Warn("Production mode: reducing TABLESAMPLE percentage",
			zap.Float64("requested_percent", ts.Percentage),
			zap.Float64("max_percent", ProductionMaxPercent))
		ts.Percentage = ProductionMaxPercent
		strategy = ts
	}

	return &Sampler{
		strategy: strategy,
		progress: opts.Progress,
		logger:   logger,
	}
}

// Strategy returns the effective strategy after any production-mode adjustment.
func (s *Sampler) Strategy() Strategy {
	return s.strategy
}

// Documents streams target's raw documents from source. Breaking out of the
// range loop stops the underlying query.
func (s *Sampler) Documents(ctx context.Context, source datasource.DocumentSource, target models.Target) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		query, err := BuildQuery(s.strategy, target)
		if err != nil {
			yield(nil, err)
			return
		}

		s.logger.Debug("Sampling documents",
			zap.String("target", target.FullName()),
			zap.String("strategy", s.strategy.Kind()),
			zap.String("query", logging.SanitizeQuery(query)))

		var rows uint64
		for doc, err := range source.Documents(ctx, query) {
			if err != nil {
				yield(nil, err)
				return
			}
			rows++
			if s.progress != nil {
				s.progress(rows)
			}
			if !yield(doc, nil) {
				return
			}
		}
	}
}
