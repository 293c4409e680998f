package dxf

import (
	"sort"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// keyDimensionCount bounds how many of the largest measurements are
// surfaced as a drawing's key dimensions
const keyDimensionCount = 5

// Aggregator folds one file's entity stream into its immutable summary
type Aggregator struct{}

// NewAggregator creates an Aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate reduces the entities and classified annotations of one drawing
// into a Summary. Each entity is read once; layer names come from the
// entities themselves, so layer_count always reflects what the drawing
// actually uses.
func (a *Aggregator) Aggregate(source, version string, entities []model.Entity, ann model.Annotations) model.Summary {
	summary := model.Summary{
		Source:      source,
		Version:     version,
		EntityCount: len(entities),
		TypeCounts:  make(map[model.EntityType]int),
		Dimensions:  ann.Dimensions,
		Materials:   ann.Materials,
		BOMRows:     ann.BOMRows,
		NoteCount:   ann.NoteCount,
		HasBOM:      ann.HasBOMBlock || len(ann.BOMRows) > 0,
	}

	layerSet := make(map[string]bool)
	for i := range entities {
		e := &entities[i]
		summary.TypeCounts[e.Type]++
		if e.Layer != "" {
			layerSet[e.Layer] = true
		}
	}

	summary.Layers = make([]string, 0, len(layerSet))
	for layer := range layerSet {
		summary.Layers = append(summary.Layers, layer)
	}
	sort.Strings(summary.Layers)
	summary.LayerCount = len(summary.Layers)

	summary.KeyDimensions = keyDimensions(ann.Dimensions)
	return summary
}

// keyDimensions picks the largest measured values, mirroring how a reader
// skims a drawing for its governing dimensions
func keyDimensions(dims []model.Dimension) []model.Dimension {
	measured := make([]model.Dimension, 0, len(dims))
	for _, d := range dims {
		if d.Measurement != nil {
			measured = append(measured, d)
		}
	}
	sort.SliceStable(measured, func(i, j int) bool {
		return *measured[i].Measurement > *measured[j].Measurement
	})
	if len(measured) > keyDimensionCount {
		measured = measured[:keyDimensionCount]
	}
	return measured
}
