package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/analyzer"
	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/drift"
	"github.com/ekaya-inc/pgdrift/pkg/index"
	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/sampler"
	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

// SamplingOptions controls how many documents a run reads and how.
type SamplingOptions struct {
	SampleSize     int
	ProductionMode bool
	// Progress, if set, receives the running document count of each run.
	Progress sampler.ProgressFunc
}

// ColumnAnalysis is the result of sampling and walking one JSONB column.
type ColumnAnalysis struct {
	RunID           uuid.UUID
	Target          models.Target
	Strategy        sampler.Strategy
	SamplesAnalyzed uint64
	// SkippedDocuments counts rows whose value could not be decoded as JSON.
	SkippedDocuments uint64
	Stats            models.Stats
	Duration         time.Duration
}

// DriftReport pairs an analysis with the drift found in it.
type DriftReport struct {
	*ColumnAnalysis
	Issues []drift.Issue
}

// IndexReport pairs an analysis with the indexes recommended for it.
type IndexReport struct {
	*ColumnAnalysis
	Recommendations []index.Recommendation
}

// AnalysisService defines the per-column analysis pipeline.
type AnalysisService interface {
	// AnalyzeColumn samples target and returns its finalized field statistics.
	// estimatedRows is advisory and may be nil. Returns apperrors.ErrNoSamples
	// when the column yields no documents.
	AnalyzeColumn(ctx context.Context, target models.Target, estimatedRows *int64) (*ColumnAnalysis, error)

	// DetectDrift analyzes target and classifies its drift.
	DetectDrift(ctx context.Context, target models.Target, cfg drift.Config) (*DriftReport, error)

	// RecommendIndexes analyzes target and recommends indexes for it.
	RecommendIndexes(ctx context.Context, target models.Target, cfg index.Config) (*IndexReport, error)
}

type analysisService struct {
	inspector datasource.TableInspector
	source    datasource.DocumentSource
	opts      SamplingOptions
	logger    *zap.Logger
}

// NewAnalysisService creates an analysis service reading through inspector and source.
func NewAnalysisService(
	inspector datasource.TableInspector,
	source datasource.DocumentSource,
	opts SamplingOptions,
	logger *zap.Logger,
) AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &analysisService{
		inspector: inspector,
		source:    source,
		opts:      opts,
		logger:    logger.Named("analysis"),
	}
}

func (s *analysisService) AnalyzeColumn(ctx context.Context, target models.Target, estimatedRows *int64) (*ColumnAnalysis, error) {
	if err := sql.ValidateTarget(target.Schema, target.Table, target.Column); err != nil {
		return nil, err
	}
	if s.opts.SampleSize <= 0 {
		return nil, fmt.Errorf("%w: sample size must be positive, got %d", apperrors.ErrInvalidConfig, s.opts.SampleSize)
	}

	start := time.Now()
	runID := uuid.New()
	logger := s.logger.With(
		zap.String("run_id", runID.String()),
		zap.String("target", target.FullName()))

	if estimatedRows == nil {
		estimatedRows = s.estimateRows(ctx, target, logger)
	}

	strategy, err := sampler.SelectStrategy(ctx, s.inspector, target, estimatedRows, s.opts.SampleSize)
	if err != nil {
		return nil, fmt.Errorf("select sampling strategy for %s: %w", target.FullName(), err)
	}

	smp := sampler.New(strategy, sampler.Options{
		ProductionMode: s.opts.ProductionMode,
		Progress:       s.opts.Progress,
		Logger:         logger,
	})
	logger.Info("Sampling column", zap.String("strategy", smp.Strategy().Describe()))

	a := analyzer.New()
	var skipped uint64
	for doc, err := range smp.Documents(ctx, s.source, target) {
		if err != nil {
			return nil, fmt.Errorf("sample %s: %w", target.FullName(), err)
		}
		if err := a.AnalyzeJSON(doc); err != nil {
			skipped++
			logger.Warn("Skipping undecodable document", zap.Error(err))
		}
	}

	if a.TotalSamples() == 0 {
		return nil, fmt.Errorf("%s: %w", target.FullName(), apperrors.ErrNoSamples)
	}

	analysis := &ColumnAnalysis{
		RunID:            runID,
		Target:           target,
		Strategy:         smp.Strategy(),
		SamplesAnalyzed:  a.TotalSamples(),
		SkippedDocuments: skipped,
		Stats:            a.Finalize(),
		Duration:         time.Since(start),
	}

	logger.Info("Analyzed column",
		zap.Uint64("samples", analysis.SamplesAnalyzed),
		zap.Int("fields", len(analysis.Stats)),
		zap.Duration("duration", analysis.Duration))

	return analysis, nil
}

// estimateRows asks the inspector for the planner's row estimate when it offers one.
// Failures are not fatal: strategy selection falls back to an exact count.
func (s *analysisService) estimateRows(ctx context.Context, target models.Target, logger *zap.Logger) *int64 {
	estimator, ok := s.inspector.(datasource.RowEstimator)
	if !ok {
		return nil
	}
	estimate, err := estimator.EstimateRowCount(ctx, target.Schema, target.Table)
	if err != nil {
		logger.Debug("Row estimate unavailable, counting rows", zap.Error(err))
		return nil
	}
	if estimate <= 0 {
		return nil
	}
	return &estimate
}

func (s *analysisService) DetectDrift(ctx context.Context, target models.Target, cfg drift.Config) (*DriftReport, error) {
	analysis, err := s.AnalyzeColumn(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	return &DriftReport{
		ColumnAnalysis: analysis,
		Issues:         drift.Detect(analysis.Stats, cfg),
	}, nil
}

func (s *analysisService) RecommendIndexes(ctx context.Context, target models.Target, cfg index.Config) (*IndexReport, error) {
	analysis, err := s.AnalyzeColumn(ctx, target, nil)
	if err != nil {
		return nil, err
	}
	return &IndexReport{
		ColumnAnalysis:  analysis,
		Recommendations: index.Recommend(analysis.Stats, target, cfg),
	}, nil
}
