// Package labs turns the flat lab-result list into the grouped display
// structure: results bucketed by clinical category, then by test name, with
// per-group column visibility for the sparse optional fields.
package labs

import (
	"fmt"
	"sort"
	"time"
)

// Display categories. "otros" is the catch-all for test names outside the
// lookup table.
const (
	CategoryBiometria = "biometriaHematica"
	CategoryQuimica   = "quimicaSanguinea"
	CategoryHepatica  = "funcionHepatica"
	CategoryLipidos   = "lipidos"
	CategoryOtros     = "otros"
)

// CategoryOrder is the fixed display order of the category sections.
var CategoryOrder = []string{
	CategoryBiometria,
	CategoryQuimica,
	CategoryHepatica,
	CategoryLipidos,
	CategoryOtros,
}

// testCategories maps a test name to its display category. Names appear in
// the accent/capitalization variants the catalog has shipped over time.
var testCategories = map[string]string{
	// Biometría hemática
	"Hemoglobina": CategoryBiometria,
	"Hematocrito": CategoryBiometria,
	"Leucocitos":  CategoryBiometria,
	"Plaquetas":   CategoryBiometria,
	// Química sanguínea
	"Urea":                    CategoryQuimica,
	"Creatinina":              CategoryQuimica,
	"Electrolitos":            CategoryQuimica,
	"Sodio":                   CategoryQuimica,
	"Potasio":                 CategoryQuimica,
	"Cloro":                   CategoryQuimica,
	"Ácido Úrico":             CategoryQuimica,
	"Acido Úrico":             CategoryQuimica,
	"Hemoglobina Glucosilada": CategoryQuimica,
	"Hemoglobina glucosilada": CategoryQuimica,
	// Función hepática
	"AST":                   CategoryHepatica,
	"ALT":                   CategoryHepatica,
	"Fosfatasa Alcalina":    CategoryHepatica,
	"Fosfatasa alcalina":    CategoryHepatica,
	"Bilirrubina Total":     CategoryHepatica,
	"Bilirrubina total":     CategoryHepatica,
	"Bilirrubina Directa":   CategoryHepatica,
	"Bilirrubina directa":   CategoryHepatica,
	"Directa":               CategoryHepatica,
	"Bilirrubina Indirecta": CategoryHepatica,
	"Bilirrubina indirecta": CategoryHepatica,
	"Indirecta":             CategoryHepatica,
	// Lípidos
	"Colesterol Total": CategoryLipidos,
	"Colesterol total": CategoryLipidos,
	"LDL":              CategoryLipidos,
	"HDL":              CategoryLipidos,
	"Triglicéridos":    CategoryLipidos,
	"Trigliceridos":    CategoryLipidos,
	"Lp(a)":            CategoryLipidos,
	"Lpa":              CategoryLipidos,
}

// CategoryFor returns the display category for a test name.
func CategoryFor(testName string) string {
	if cat, ok := testCategories[testName]; ok {
		return cat
	}
	return CategoryOtros
}

// Result is the subset of a lab row the grouping needs.
type Result struct {
	IDLabs         int     `json:"idLabs"`
	IDContent      int     `json:"idContent"`
	TestName       string  `json:"testName,omitempty"`
	Value          float64 `json:"value"`
	Unit           string  `json:"unit,omitempty"`
	ReferenceRange string  `json:"referenceRange,omitempty"`
	Comment        string  `json:"comment,omitempty"`
	Date           string  `json:"date"`
}

// DisplayName is the test name shown in the grid; rows whose catalog join
// produced no name fall back to the content id.
func (r Result) DisplayName() string {
	if r.TestName != "" {
		return r.TestName
	}
	return fmt.Sprintf("Lab Test #%d", r.IDContent)
}

// TestGroup is all results for one test name, newest first, plus which
// optional columns any row in the group populates.
type TestGroup struct {
	TestName string   `json:"testName"`
	Results  []Result `json:"results"`
	Columns  Columns  `json:"columns"`
}

// Columns records which optional columns are visible for a group.
type Columns struct {
	Unit           bool `json:"unit"`
	ReferenceRange bool `json:"referenceRange"`
	Comment        bool `json:"comment"`
}

// GridTemplate builds the grid column-width template matching exactly the
// visible columns: date and value always, then unit / reference range /
// comment only when the group shows them.
func (c Columns) GridTemplate() string {
	tpl := "minmax(0, 1.2fr) minmax(0, 1fr)"
	if c.Unit {
		tpl += " minmax(0, 1.2fr)"
	}
	if c.ReferenceRange {
		tpl += " minmax(0, 1.3fr)"
	}
	if c.Comment {
		tpl += " minmax(0, 1.8fr)"
	}
	return tpl
}

// CategoryGroup is one display section.
type CategoryGroup struct {
	Category string      `json:"category"`
	Tests    []TestGroup `json:"tests"`
}

// Group buckets results by category and test name. Within a test, results
// are sorted by date descending (undated rows sink to the end); within a
// category, tests are listed alphabetically for a stable display order.
// Every category is present in the output, empty ones included.
func Group(results []Result) []CategoryGroup {
	byCategory := make(map[string]map[string][]Result, len(CategoryOrder))
	for _, cat := range CategoryOrder {
		byCategory[cat] = make(map[string][]Result)
	}

	for _, r := range results {
		name := r.DisplayName()
		cat := CategoryFor(name)
		byCategory[cat][name] = append(byCategory[cat][name], r)
	}

	out := make([]CategoryGroup, 0, len(CategoryOrder))
	for _, cat := range CategoryOrder {
		tests := byCategory[cat]
		names := make([]string, 0, len(tests))
		for name := range tests {
			names = append(names, name)
		}
		sort.Strings(names)

		groups := make([]TestGroup, 0, len(names))
		for _, name := range names {
			rs := tests[name]
			sort.SliceStable(rs, func(i, j int) bool {
				return parseDate(rs[i].Date).After(parseDate(rs[j].Date))
			})
			groups = append(groups, TestGroup{
				TestName: name,
				Results:  rs,
				Columns:  visibleColumns(rs),
			})
		}
		out = append(out, CategoryGroup{Category: cat, Tests: groups})
	}
	return out
}

func visibleColumns(rs []Result) Columns {
	var c Columns
	for _, r := range rs {
		if r.Unit != "" {
			c.Unit = true
		}
		if r.ReferenceRange != "" {
			c.ReferenceRange = true
		}
		if r.Comment != "" {
			c.Comment = true
		}
	}
	return c
}

func parseDate(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
