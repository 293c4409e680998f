package intelligence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cadscope/dxf-indexer/internal/dxf/model"
)

// AnnotationClassifier assigns semantic roles to a drawing's text. A text
// entity is claimed by at most one structured role; the rule chain order
// (dimension, material) and the table pass afterwards fix the precedence.
type AnnotationClassifier struct {
	config Config
	rules  []Rule
}

// NewAnnotationClassifier creates a classifier with the default rule chain
func NewAnnotationClassifier() *AnnotationClassifier {
	return &AnnotationClassifier{
		config: DefaultConfig(),
		rules:  DefaultRules(),
	}
}

// NewAnnotationClassifierWithConfig creates a classifier with custom tuning
func NewAnnotationClassifierWithConfig(config Config) *AnnotationClassifier {
	return &AnnotationClassifier{
		config: config,
		rules:  DefaultRules(),
	}
}

// LoadCustomRules appends rules from a JSON or YAML file to the chain.
// Custom rules run after the built-in ones, so they can only claim text the
// defaults left unclassified.
func (c *AnnotationClassifier) LoadCustomRules(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read custom rules: %w", err)
	}

	var file RuleFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse custom rules: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse custom rules: %w", err)
		}
	}

	for i := range file.Rules {
		if err := file.Rules[i].Compile(); err != nil {
			return err
		}
	}
	c.rules = append(c.rules, file.Rules...)
	return nil
}

// Rules returns the active rule chain in evaluation order
func (c *AnnotationClassifier) Rules() []Rule {
	return c.rules
}

// Classify walks one drawing's entities and extracts structured annotation
// records. It never fails: text that matches nothing stays a counted note,
// and degraded extractions surface through diags.
func (c *AnnotationClassifier) Classify(entities []model.Entity, diags *model.Diagnostics) model.Annotations {
	ann := model.Annotations{
		Dimensions: []model.Dimension{},
		Materials:  []model.Material{},
		BOMRows:    []model.BOMRow{},
	}

	items, seedLayers := c.collectText(entities, &ann)

	roles := make([]Role, len(items))
	for i := range roles {
		roles[i] = RoleNote
	}
	for i, item := range items {
		role, ok := c.matchChain(item)
		if !ok {
			continue
		}
		roles[i] = role
		switch role {
		case RoleDimension:
			dim := model.Dimension{
				Text:         item.text,
				Layer:        item.layer,
				Position:     item.position,
				EntityHandle: item.handle,
			}
			if m, ok := model.ParseMeasurement(item.text); ok {
				dim.Measurement = &m
			} else {
				diags.AddEntity(item.handle, model.DiagUnparsableValue,
					fmt.Sprintf("dimension text %q has no numeric value", item.text))
			}
			ann.Dimensions = append(ann.Dimensions, dim)
		case RoleMaterial:
			ann.Materials = append(ann.Materials, model.Material{
				Content:      item.text,
				Layer:        item.layer,
				Position:     item.position,
				EntityHandle: item.handle,
			})
		default:
			// Rules can only yield structured roles; notes fall out below.
			roles[i] = RoleNote
		}
	}

	rows, used := c.clusterTables(items, roles, seedLayers)
	ann.BOMRows = append(ann.BOMRows, rows...)

	for i := range items {
		if roles[i] == RoleNote && !used[i] {
			ann.NoteCount++
		}
	}
	return ann
}

// collectText lifts classifiable text out of the entity stream. DIMENSION
// entities become dimension records directly; TEXT, MTEXT, and INSERT
// attribute values go through the rule chain.
func (c *AnnotationClassifier) collectText(entities []model.Entity, ann *model.Annotations) ([]textItem, map[string]bool) {
	var items []textItem
	seedLayers := make(map[string]bool)

	for i := range entities {
		e := &entities[i]
		switch p := e.Payload.(type) {
		case model.DimensionPayload:
			ann.Dimensions = append(ann.Dimensions, model.Dimension{
				Measurement:  p.Measurement,
				Text:         p.Text,
				Layer:        e.Layer,
				Position:     p.DefPoint,
				EntityHandle: e.Handle,
			})
		case model.TextPayload:
			if p.Text == "" {
				continue
			}
			items = append(items, textItem{
				handle:   e.Handle,
				text:     p.Text,
				layer:    e.Layer,
				position: p.Position,
				height:   p.Height,
			})
		case model.InsertPayload:
			if IsBOMBlockName(p.Name) {
				ann.HasBOMBlock = true
				seedLayers[strings.ToLower(e.Layer)] = true
			}
			for _, attr := range p.Attributes {
				items = append(items, textItem{
					handle:   e.Handle,
					text:     attr.Value,
					layer:    e.Layer,
					position: p.Insert,
				})
			}
		}
	}
	return items, seedLayers
}

// matchChain runs the ordered rule chain; the first matching rule wins
func (c *AnnotationClassifier) matchChain(item textItem) (Role, bool) {
	for i := range c.rules {
		if c.ruleMatches(&c.rules[i], item) {
			return c.rules[i].Role, true
		}
	}
	return RoleNote, false
}

func (c *AnnotationClassifier) ruleMatches(rule *Rule, item textItem) bool {
	for _, re := range rule.compiled {
		if re.MatchString(item.text) {
			return true
		}
	}
	lower := strings.ToLower(item.text)
	for _, kw := range rule.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	layer := strings.ToLower(item.layer)
	for _, l := range rule.Layers {
		if layer == strings.ToLower(l) {
			return true
		}
	}
	return false
}
