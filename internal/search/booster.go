/*
Package search provides the keyword-overlap signal used by the decision
engine when ranking a namespace's tools.

Tool names, descriptions and keyword lists are indexed in an in-memory Bleve
index; at decision time the event transcription is matched against it and the
hit scores, min-max normalized to [0, 1], become the keyword boost term of
the combined tool score.
*/
package search

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/registry"
)

// Booster indexes tool surface terms and scores transcriptions against them.
type Booster struct {
	index  bleve.Index
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewBooster creates a booster with an in-memory index.
func NewBooster(logger *zap.Logger) (*Booster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create bleve index: %w", err)
	}

	return &Booster{index: index, logger: logger}, nil
}

// buildIndexMapping creates the Bleve mapping for tool documents.
func buildIndexMapping() mapping.IndexMapping {
	toolMapping := bleve.NewDocumentMapping()

	nameFieldMapping := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("name", nameFieldMapping)

	descFieldMapping := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("description", descFieldMapping)

	keywordsFieldMapping := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("keywords", keywordsFieldMapping)

	namespaceFieldMapping := bleve.NewTextFieldMapping()
	toolMapping.AddFieldMappingsAt("namespace", namespaceFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("_default", toolMapping)

	return indexMapping
}

// IndexTools (re)indexes the given tools, keyed by full name.
func (b *Booster) IndexTools(tools []*registry.Tool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	batch := b.index.NewBatch()
	for _, t := range tools {
		doc := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"keywords":    strings.Join(t.Keywords, " "),
			"namespace":   t.Namespace,
		}
		if err := batch.Index(t.FullName(), doc); err != nil {
			b.logger.Warn("failed to index tool", zap.String("tool", t.FullName()), zap.Error(err))
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to batch index tools: %w", err)
	}
	return nil
}

// Boost matches the transcription against the index and returns normalized
// scores by tool full name. Tools without a hit are simply absent from the
// map; lookup misses read as zero boost.
func (b *Booster) Boost(transcription string, limit int) (map[string]float64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchRequest := bleve.NewSearchRequestOptions(bleve.NewMatchQuery(transcription), limit, 0, false)
	results, err := b.index.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	if len(results.Hits) == 0 {
		return map[string]float64{}, nil
	}

	minScore := results.Hits[0].Score
	maxScore := results.Hits[0].Score
	for _, hit := range results.Hits {
		if hit.Score < minScore {
			minScore = hit.Score
		}
		if hit.Score > maxScore {
			maxScore = hit.Score
		}
	}

	boosts := make(map[string]float64, len(results.Hits))
	for _, hit := range results.Hits {
		if maxScore == minScore {
			boosts[hit.ID] = 1.0
			continue
		}
		boosts[hit.ID] = (hit.Score - minScore) / (maxScore - minScore)
	}
	return boosts, nil
}

// Count returns the number of indexed tools.
func (b *Booster) Count() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.index.DocCount()
}

// Close releases index resources.
func (b *Booster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index != nil {
		return b.index.Close()
	}
	return nil
}
