package postgres

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pgdrift/pkg/logging"
	"github.com/ekaya-inc/pgdrift/pkg/sql"
)

// Documents streams the first column of query as raw JSON. Rows are read one at a
// time from the server. When the consumer stops early the query context is
// cancelled so the server abandons the rest of the result instead of sending it.
// A query holding more than one statement is refused before it reaches the server.
func (a *Adapter) Documents(ctx context.Context, query string) iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		query, err := sql.SingleStatement(query)
		if err != nil {
			yield(nil, fmt.Errorf("query documents: %w", err))
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		rows, err := a.pool.Query(ctx, query)
		if err != nil {
			a.logger.Error("Document query failed",
				zap.String("query", logging.SanitizeQuery(query)),
				zap.String("error", logging.SanitizeError(err)))
			yield(nil, fmt.Errorf("query documents: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var doc []byte
			if err := rows.Scan(&doc); err != nil {
				yield(nil, fmt.Errorf("scan document: %w", err))
				return
			}
			if !yield(doc, nil) {
				cancel()
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("iterate documents: %w", err))
		}
	}
}
