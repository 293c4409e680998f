package intelligence

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

var (
	numericOnly = regexp.MustCompile(`^\d+$`)
	partNoLike  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/-]{0,11}$`)
)

// clusterTables groups the remaining text into table rows: same layer,
// positions aligned into rows by Y and columns by X. Rows that qualify
// become BOM rows; used marks the items they consumed. Material-claimed
// cells still join rows (a table's material column is also a material
// callout); dimension-claimed text never does.
func (c *AnnotationClassifier) clusterTables(items []textItem, roles []Role, seedLayers map[string]bool) ([]model.BOMRow, []bool) {
	used := make([]bool, len(items))

	byLayer := make(map[string][]int)
	var layers []string
	for i, item := range items {
		if roles[i] == RoleDimension || item.position == nil {
			continue
		}
		key := strings.ToLower(item.layer)
		if _, seen := byLayer[key]; !seen {
			layers = append(layers, key)
		}
		byLayer[key] = append(byLayer[key], i)
	}
	sort.Strings(layers) // deterministic layer order

	var rows []model.BOMRow
	for _, layer := range layers {
		minRows := c.config.MinTableRows
		if seedLayers[layer] {
			minRows = 1
		}
		for _, tableRows := range c.groupRows(items, byLayer[layer]) {
			if len(tableRows) < minRows {
				continue
			}
			if !c.columnsAligned(items, tableRows) {
				continue
			}
			for _, rowIdx := range tableRows {
				rows = append(rows, c.buildRow(items, rowIdx))
				for _, i := range rowIdx {
					used[i] = true
				}
			}
		}
	}
	return rows, used
}

// groupRows buckets one layer's items into rows of nearby Y, then splits the
// row sequence into runs of tabular rows (at least MinTableCols cells).
// Items within a row are ordered by X.
func (c *AnnotationClassifier) groupRows(items []textItem, idxs []int) [][][]int {
	sorted := append([]int(nil), idxs...)
	sort.Slice(sorted, func(a, b int) bool {
		pa, pb := items[sorted[a]].position, items[sorted[b]].position
		if pa.Y != pb.Y {
			return pa.Y > pb.Y // top of the drawing first
		}
		return pa.X < pb.X
	})

	var rowGroups [][]int
	for _, i := range sorted {
		tol := c.rowTolerance(items[i])
		if n := len(rowGroups); n > 0 {
			last := rowGroups[n-1]
			anchor := items[last[0]].position.Y
			if math.Abs(items[i].position.Y-anchor) <= tol {
				rowGroups[n-1] = append(last, i)
				continue
			}
		}
		rowGroups = append(rowGroups, []int{i})
	}
	for _, row := range rowGroups {
		sort.Slice(row, func(a, b int) bool {
			return items[row[a]].position.X < items[row[b]].position.X
		})
	}

	// Consecutive tabular rows form one table; a non-tabular row breaks it.
	var tables [][][]int
	var current [][]int
	for _, row := range rowGroups {
		if len(row) >= c.config.MinTableCols {
			current = append(current, row)
			continue
		}
		if len(current) > 0 {
			tables = append(tables, current)
			current = nil
		}
	}
	if len(current) > 0 {
		tables = append(tables, current)
	}
	return tables
}

func (c *AnnotationClassifier) rowTolerance(item textItem) float64 {
	if item.height != nil && *item.height > 0 {
		return *item.height * 1.5
	}
	return c.config.RowTolerance
}

// columnsAligned checks that each row's first cell starts at roughly the
// same X as the first row's: a loose grid test, not a full table layout.
func (c *AnnotationClassifier) columnsAligned(items []textItem, rows [][]int) bool {
	if len(rows) < 2 {
		return true
	}
	anchor := items[rows[0][0]].position.X
	for _, row := range rows[1:] {
		if math.Abs(items[row[0]].position.X-anchor) > c.config.ColumnTolerance {
			return false
		}
	}
	return true
}

// buildRow infers column roles from cell content: numeric-only cells are
// quantities, material vocabulary is material, short alphanumeric codes are
// part numbers, and the rest joins into the description.
func (c *AnnotationClassifier) buildRow(items []textItem, rowIdx []int) model.BOMRow {
	row := model.BOMRow{}
	var description []string

	materialRule := c.materialRule()
	for _, i := range rowIdx {
		item := items[i]
		row.EntityHandles = append(row.EntityHandles, item.handle)
		if row.Layer == "" {
			row.Layer = item.layer
		}

		cell := strings.TrimSpace(item.text)
		switch {
		case row.Quantity == "" && numericOnly.MatchString(cell):
			row.Quantity = cell
		case row.Material == "" && materialRule != nil && c.ruleMatches(materialRule, item):
			row.Material = cell
		case row.PartNo == "" && partNoLike.MatchString(cell) && containsDigit(cell):
			row.PartNo = cell
		default:
			description = append(description, cell)
		}
	}
	row.Description = strings.Join(description, " ")
	return row
}

func (c *AnnotationClassifier) materialRule() *Rule {
	for i := range c.rules {
		if c.rules[i].Role == RoleMaterial && len(c.rules[i].Patterns) > 0 {
			return &c.rules[i]
		}
	}
	return nil
}

func containsDigit(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}
