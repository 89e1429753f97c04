package index

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/ekaya-inc/pgdrift/pkg/models"
	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

// Recommend produces index recommendations for target from finalized statistics.
// All high-density fields share one GIN recommendation; sparse fields get partial
// GIN indexes and medium-density scalars outside arrays get extracted B-tree indexes.
func Recommend(stats models.Stats, target models.Target, cfg Config) []Recommendation {
	table := sql.QualifiedTableName(target.Schema, target.Table)
	column := sql.QuoteIdentifier(target.Column)

	var (
		recs []Recommendation
		high []*models.FieldStats
	)

	for _, s := range stats.Sorted() {
		dominant, ok := s.DominantType()
		if s.Occurrences < cfg.MinOccurrences || (ok && dominant.IsContainer()) {
			continue
		}

		switch {
		case s.Density >= cfg.HighDensityThreshold:
			high = append(high, s)
		case s.Density > 0 && s.Density <= cfg.MediumDensityThreshold:
			recs = append(recs, partialGin(target, table, column, s))
		case s.Density > cfg.MediumDensityThreshold && ok && dominant.IsScalar() && !traversesArray(splitPath(s.Path)):
			recs = append(recs, extractedBTree(target, table, column, s, dominant))
		}
	}

	if len(high) > 0 {
		recs = append([]Recommendation{consolidatedGin(target, table, column, high)}, recs...)
	}

	slices.SortStableFunc(recs, func(a, b Recommendation) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	return recs
}

func consolidatedGin(target models.Target, table, column string, fields []*models.FieldStats) Recommendation {
	primary := fields[0]
	for _, s := range fields[1:] {
		if s.Density > primary.Density {
			primary = s
		}
	}

	listed := make([]string, 0, len(fields))
	for _, s := range fields {
		listed = append(listed, fmt.Sprintf("%s (%.1f%%)", s.Path, s.Density*100))
	}
	fieldList := strings.Join(listed, ", ")

	name := IndexName(target.Table, target.Column, "", "gin")
	// Paths are document data, so the comment carries only counts and densities.
	comment := fmt.Sprintf("-- GIN index for %d high-density fields", len(fields))
	if len(fields) == 1 {
		comment = fmt.Sprintf("-- GIN index for high-density field (%.1f%%)", primary.Density*100)
	}
	ddl := fmt.Sprintf("%s\nCREATE INDEX %s ON %s USING GIN (%s);", comment, sql.QuoteIdentifier(name), table, column)

	var reason string
	if len(fields) == 1 {
		reason = fmt.Sprintf("High density (%.1f%%) - present in %d/%d samples. GIN index enables fast JSONB queries (@>, ?, ?&, ?|)",
			primary.Density*100, primary.Occurrences, primary.TotalSamples)
	} else {
		reason = fmt.Sprintf("%d high-density fields (%s). Single GIN index supports fast JSONB queries (@>, ?, ?&, ?|) for all fields.",
			len(fields), fieldList)
	}

	return Recommendation{
		FieldPath:        primary.Path,
		IndexType:        TypeGin,
		Priority:         PriorityMedium,
		IndexName:        name,
		Reason:           reason,
		SQL:              ddl,
		EstimatedBenefit: "Improved query performance for existence checks and containment queries across all high-density fields.",
	}
}

func partialGin(target models.Target, table, column string, s *models.FieldStats) Recommendation {
	name := IndexName(target.Table, target.Column, s.Path, "partial_gin")
	ddl := fmt.Sprintf("-- Partial GIN index for sparse field: %.1f%% of rows contain this field\nCREATE INDEX %s ON %s USING GIN (%s) WHERE %s;",
		s.Density*100, sql.QuoteIdentifier(name), table, column, existencePredicate(column, s.Path))

	return Recommendation{
		FieldPath: s.Path,
		IndexType: TypePartial,
		Priority:  PriorityMedium,
		IndexName: name,
		Reason: fmt.Sprintf("Sparse field (%.1f%%) - only %d/%d samples have this field. Partial index reduces index size and maintenance cost",
			s.Density*100, s.Occurrences, s.TotalSamples),
		SQL:              ddl,
		EstimatedBenefit: fmt.Sprintf("Smaller index (~%.1f%% of full GIN), faster updates, same query performance for matching rows", s.Density*100),
	}
}

func extractedBTree(target models.Target, table, column string, s *models.FieldStats, kind models.JSONType) Recommendation {
	expr := extractionExpression(column, s.Path)
	pgType := "TEXT"
	switch kind {
	case models.JSONNumber:
		expr, pgType = "("+expr+"::NUMERIC)", "NUMERIC"
	case models.JSONBoolean:
		expr, pgType = "("+expr+"::BOOLEAN)", "BOOLEAN"
	}

	name := IndexName(target.Table, target.Column, s.Path, "btree_ext")
	ddl := fmt.Sprintf("-- B-tree index on extracted %s value: %.1f%% density\nCREATE INDEX %s ON %s (%s) WHERE %s IS NOT NULL;",
		pgType, s.Density*100, sql.QuoteIdentifier(name), table, expr, expr)

	return Recommendation{
		FieldPath: s.Path,
		IndexType: TypeBTreeExtracted,
		Priority:  PriorityMedium,
		IndexName: name,
		Reason: fmt.Sprintf("Medium density %s field (%.1f%%) - %d/%d samples. B-tree index on extracted value supports range queries and sorting.",
			kind, s.Density*100, s.Occurrences, s.TotalSamples),
		SQL:              ddl,
		EstimatedBenefit: "Improved query performance for lookups and range queries on scalar values.",
	}
}
