package intelligence

import "regexp"

// DefaultRules returns the built-in rule chain. Order is precedence:
// dimension rules run before material rules, and BOM table detection only
// sees text neither of them claimed.
func DefaultRules() []Rule {
	rules := []Rule{
		{
			Name: "dimension_tolerance",
			Role: RoleDimension,
			Patterns: []string{
				`±\s*\d`,
				`\b(?:H|h|G|g|JS|js)\d{1,2}\b`,
				`(?i)\bTOL\b`,
			},
			Description: "Tolerance markers and fit classes (±0.02, H7, G6, JS9)",
		},
		{
			Name: "dimension_diameter_radius",
			Role: RoleDimension,
			Patterns: []string{
				`[⌀Øøφ]\s*\d`,
				`(?i)^\(?R\d+(?:\.\d+)?\)?$`,
			},
			Description: "Diameter and radius callouts (⌀12, R5)",
		},
		{
			Name: "dimension_numeric_unit",
			Role: RoleDimension,
			Patterns: []string{
				`(?i)\b\d+(?:\.\d+)?\s*(?:mm|cm|µm|um)\b`,
			},
			// Bare numbers are deliberately not claimed here: they are the
			// quantity cells of BOM tables and must stay available for the
			// table pass.
			Description: "Numbers followed by a length unit",
		},
		{
			Name: "dimension_thread",
			Role: RoleDimension,
			Patterns: []string{
				`\bM\d{1,2}(?:x\d+(?:\.\d+)?)?\b`,
				`\b(?:UNC|UNF|Rc|Rp|PT)\b`,
			},
			Description: "Thread and tap callouts (M8, M10x1.5, UNC)",
		},
		{
			Name: "material_designation",
			Role: RoleMaterial,
			Patterns: []string{
				`(?i)\bSUS\d{3}[A-Z]?\b`, // stainless grades (SUS304)
				`(?i)\bSS\d{3}\b`,        // rolled steel (SS400)
				`(?i)\bS\d{2}C\b`,        // carbon steel (S45C)
				`(?i)\bSK[DHS]?\d+\b`,    // tool steel (SKD11)
				`(?i)\bSCM\d{3}\b`,       // chrome-moly (SCM435)
				`(?i)\bFC[D]?\d{3}\b`,    // cast iron (FC250, FCD450)
				`(?i)\bA\d{4}[PH]?\b`,    // aluminum alloys (A5052)
				`(?i)\bC\d{4}\b`,         // copper alloys (C3604)
			},
			Keywords: []string{
				"steel", "stainless", "aluminum", "aluminium",
				"brass", "copper", "titanium", "material",
			},
			Description: "Alloy and material grade vocabulary",
		},
		{
			Name:        "material_layer",
			Role:        RoleMaterial,
			Layers:      []string{"material", "materials", "mat"},
			Description: "Text placed on a material callout layer",
		},
	}
	for i := range rules {
		// Built-in patterns are known-good; Compile only fails on user input.
		_ = rules[i].Compile()
	}
	return rules
}

// bomBlockName matches INSERT block names that conventionally hold a parts
// list (the original drawings use both English and Japanese titles)
var bomBlockName = regexp.MustCompile(`(?i)(BOM|PARTS?|LIST|部品表|部品リスト)`)

// IsBOMBlockName reports whether a block name looks like a parts list
func IsBOMBlockName(name string) bool {
	return name != "" && bomBlockName.MatchString(name)
}
