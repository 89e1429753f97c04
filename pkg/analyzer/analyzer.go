// Package analyzer folds decoded JSON documents into per-path field statistics.
package analyzer

import (
	"github.com/ekaya-inc/pgdrift/pkg/jsonutil"
	"github.com/ekaya-inc/pgdrift/pkg/models"
)

// ArrayMarker is appended to a path when the walker descends into an array.
const ArrayMarker = "[]"

// Analyzer accumulates statistics for one analysis run.
// It is not safe for concurrent use; each run owns its own Analyzer.
type Analyzer struct {
	stats     models.Stats
	documents uint64
}

// New returns an empty Analyzer.
func New() *Analyzer {
	return &Analyzer{stats: make(models.Stats)}
}

// Analyze folds one decoded document into the statistics.
func (a *Analyzer) Analyze(doc any) {
	a.documents++
	a.walk(doc, "", 0)
}

// AnalyzeJSON decodes raw and folds it in. On a decode error nothing is counted.
func (a *Analyzer) AnalyzeJSON(raw []byte) error {
	doc, err := jsonutil.Decode(raw)
	if err != nil {
		return err
	}
	a.Analyze(doc)
	return nil
}

// TotalSamples returns the number of documents analyzed so far.
func (a *Analyzer) TotalSamples() uint64 {
	return a.documents
}

// Finalize stamps every path with the document count and returns the statistics.
// The Analyzer hands ownership of the map to the caller.
func (a *Analyzer) Finalize() models.Stats {
	for _, s := range a.stats {
		s.Finalize(a.documents)
	}
	return a.stats
}

func (a *Analyzer) walk(value any, path string, depth int) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}
			a.record(childPath, depth+1, child)
			a.walk(child, childPath, depth+1)
		}
	case []any:
		arrayPath := path + ArrayMarker
		for _, elem := range v {
			a.walk(elem, arrayPath, depth+1)
		}
	}
}

func (a *Analyzer) record(path string, depth int, value any) {
	s, ok := a.stats[path]
	if !ok {
		s = models.NewFieldStats(path, depth)
		a.stats[path] = s
	}
	s.Record(value)
}
