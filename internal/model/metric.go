package model

import (
	"fmt"
	"strconv"
)

// MetricCategory groups metrics under a Principle 6 disclosure area.
type MetricCategory string

const (
	CategoryEmissions MetricCategory = "emissions"
	CategoryWater     MetricCategory = "water"
	CategoryWaste     MetricCategory = "waste"
)

// AllCategories returns the categories in report order.
func AllCategories() []MetricCategory {
	return []MetricCategory{CategoryEmissions, CategoryWater, CategoryWaste}
}

// Label returns the display name of the category.
func (c MetricCategory) Label() string {
	switch c {
	case CategoryEmissions:
		return "Emissions"
	case CategoryWater:
		return "Water"
	case CategoryWaste:
		return "Waste"
	default:
		return string(c)
	}
}

// EvidencedValue is one numeric disclosure with the quote and page the LLM
// cited for it. Value is nil when the report does not disclose the figure.
type EvidencedValue struct {
	Value *float64 `json:"value"`
	Unit  string   `json:"unit,omitempty"`
	Quote string   `json:"quote,omitempty"`
	Page  int      `json:"page,omitempty"`
}

// EmissionsDisclosure covers GHG emissions.
type EmissionsDisclosure struct {
	Scope1 EvidencedValue `json:"scope_1"`
	Scope2 EvidencedValue `json:"scope_2"`
	Scope3 EvidencedValue `json:"scope_3"`
}

// WaterDisclosure covers water consumption.
type WaterDisclosure struct {
	TotalConsumed EvidencedValue `json:"total_water_consumed"`
	Intensity     EvidencedValue `json:"water_intensity"`
}

// WasteDisclosure covers waste management.
type WasteDisclosure struct {
	TotalGenerated     EvidencedValue `json:"total_waste_generated"`
	Hazardous          EvidencedValue `json:"hazardous_waste"`
	RecycledPercentage EvidencedValue `json:"recycled_percentage"`
}

// DisclosureRecord is the fixed-shape record the LLM populates for one
// report.
type DisclosureRecord struct {
	Emissions        EmissionsDisclosure `json:"emissions"`
	Water            WaterDisclosure     `json:"water"`
	Waste            WasteDisclosure     `json:"waste"`
	OtherInitiatives []string            `json:"other_initiatives"`
}

// ExtractedMetric is a single metric pulled from a document. It is immutable
// once built by the ingestor.
type ExtractedMetric struct {
	Name     string         `json:"name"`
	Category MetricCategory `json:"category"`
	Value    *float64       `json:"value"`
	Unit     string         `json:"unit,omitempty"`
	Quote    string         `json:"quote,omitempty"`
	Page     int            `json:"page,omitempty"`
}

// Metrics flattens the record into metrics in a fixed order.
func (r DisclosureRecord) Metrics() []ExtractedMetric {
	entries := []struct {
		name string
		cat  MetricCategory
		v    EvidencedValue
		unit string
	}{
		{"scope_1_emissions", CategoryEmissions, r.Emissions.Scope1, "tCO2e"},
		{"scope_2_emissions", CategoryEmissions, r.Emissions.Scope2, "tCO2e"},
		{"scope_3_emissions", CategoryEmissions, r.Emissions.Scope3, "tCO2e"},
		{"total_water_consumed", CategoryWater, r.Water.TotalConsumed, "kL"},
		{"water_intensity", CategoryWater, r.Water.Intensity, "kL/INR turnover"},
		{"total_waste_generated", CategoryWaste, r.Waste.TotalGenerated, "t"},
		{"hazardous_waste", CategoryWaste, r.Waste.Hazardous, "t"},
		{"waste_recycled_percentage", CategoryWaste, r.Waste.RecycledPercentage, "%"},
	}

	out := make([]ExtractedMetric, 0, len(entries))
	for _, e := range entries {
		unit := e.v.Unit
		if unit == "" {
			unit = e.unit
		}
		out = append(out, ExtractedMetric{
			Name:     e.name,
			Category: e.cat,
			Value:    e.v.Value,
			Unit:     unit,
			Quote:    e.v.Quote,
			Page:     e.v.Page,
		})
	}
	return out
}

// DisplayName returns a human-readable metric name.
func (m ExtractedMetric) DisplayName() string {
	switch m.Name {
	case "scope_1_emissions":
		return "Scope 1 emissions"
	case "scope_2_emissions":
		return "Scope 2 emissions"
	case "scope_3_emissions":
		return "Scope 3 emissions"
	case "total_water_consumed":
		return "Total water consumed"
	case "water_intensity":
		return "Water intensity"
	case "total_waste_generated":
		return "Total waste generated"
	case "hazardous_waste":
		return "Hazardous waste"
	case "waste_recycled_percentage":
		return "Waste recycled"
	default:
		return m.Name
	}
}

// HasCitation reports whether the metric carries both a quote and a page.
func (m ExtractedMetric) HasCitation() bool {
	return m.Quote != "" && m.Page > 0
}

// FormatValue renders the value without trailing zeros, or "not disclosed".
func (m ExtractedMetric) FormatValue() string {
	if m.Value == nil {
		return "not disclosed"
	}
	return strconv.FormatFloat(*m.Value, 'f', -1, 64)
}

// Claim renders the metric as the hypothesis sentence given to the
// entailment classifier, e.g. "Scope 1 emissions: 1200 tCO2e".
func (m ExtractedMetric) Claim() string {
	if m.Value == nil {
		return fmt.Sprintf("%s: not disclosed", m.DisplayName())
	}
	if m.Unit == "" {
		return fmt.Sprintf("%s: %s", m.DisplayName(), m.FormatValue())
	}
	return fmt.Sprintf("%s: %s %s", m.DisplayName(), m.FormatValue(), m.Unit)
}
