package sampler

import (
	"context"
	"errors"
	"fmt"

	"github.com/ekaya-inc/pgdrift/pkg/adapters/datasource"
	"github.com/ekaya-inc/pgdrift/pkg/apperrors"
	"github.com/ekaya-inc/pgdrift/pkg/models"
)

const (
	// RandomMaxRows is the row count below which ORDER BY random() is cheap enough.
	RandomMaxRows = 100_000
	// ReservoirMaxRows is the row count below which PK-driven sampling is used.
	ReservoirMaxRows = 10_000_000

	MinTableSamplePercent = 0.1
	MaxTableSamplePercent = 100.0
)

// SelectStrategy picks a strategy for target. estimatedRows is advisory: when it is nil
// or not positive, the exact count is fetched instead.
func SelectStrategy(
	ctx context.Context,
	inspector datasource.TableInspector,
	target models.Target,
	estimatedRows *int64,
	sampleSize int,
) (Strategy, error) {
	var rows int64
	if estimatedRows != nil && *estimatedRows > 0 {
		rows = *estimatedRows
	} else {
		count, err := inspector.CountRows(ctx, target.Schema, target.Table)
		if err != nil {
			return nil, fmt.Errorf("count rows in %s.%s: %w", target.Schema, target.Table, err)
		}
		rows = count
	}

	if int64(sampleSize) >= rows {
		return Full{}, nil
	}

	switch {
	case rows < RandomMaxRows:
		return Random{Limit: sampleSize}, nil

	case rows < ReservoirMaxRows:
		pk, err := inspector.FindPrimaryKey(ctx, target.Schema, target.Table)
		if errors.Is(err, apperrors.ErrNoPrimaryKey) {
			return Random{Limit: sampleSize}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("find primary key of %s.%s: %w", target.Schema, target.Table, err)
		}
		return ReservoirPK{SampleSize: sampleSize, PK: pk}, nil

	default:
		return TableSample{Percentage: TableSamplePercentage(sampleSize, rows), Limit: sampleSize}, nil
	}
}

// TableSamplePercentage is sampleSize/rows*100 clamped to [0.1, 100].
func TableSamplePercentage(sampleSize int, rows int64) float64 {
	if rows <= 0 {
		return MaxTableSamplePercent
	}
	pct := float64(sampleSize) / float64(rows) * 100
	return min(max(pct, MinTableSamplePercent), MaxTableSamplePercent)
}
