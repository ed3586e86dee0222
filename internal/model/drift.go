package model

import "fmt"

// DriftScore measures divergence between a reported claim and its source or
// mandate text. Valid scores are 0 through 3.
type DriftScore int

const (
	DriftFaithful    DriftScore = 0 // verbatim or strongly entailed
	DriftParaphrased DriftScore = 1 // low-confidence entailment
	DriftAbstract    DriftScore = 2 // neutral
	DriftDrifted     DriftScore = 3 // contradiction or missing citation

	MinDriftScore = DriftFaithful
	MaxDriftScore = DriftDrifted
)

// AllDriftScores returns every band in ascending order.
func AllDriftScores() []DriftScore {
	return []DriftScore{DriftFaithful, DriftParaphrased, DriftAbstract, DriftDrifted}
}

// Valid reports whether s lies in the closed range [0,3].
func (s DriftScore) Valid() bool {
	return s >= MinDriftScore && s <= MaxDriftScore
}

// Band returns the short band name.
func (s DriftScore) Band() string {
	switch s {
	case DriftFaithful:
		return "faithful"
	case DriftParaphrased:
		return "paraphrased"
	case DriftAbstract:
		return "abstract"
	case DriftDrifted:
		return "drift"
	default:
		return fmt.Sprintf("invalid(%d)", int(s))
	}
}

// NLILabel is the relation predicted by the entailment classifier.
type NLILabel string

const (
	LabelEntailment    NLILabel = "entailment"
	LabelNeutral       NLILabel = "neutral"
	LabelContradiction NLILabel = "contradiction"

	// LabelVerbatim and LabelMissing mark records scored without a
	// classifier call.
	LabelVerbatim NLILabel = "verbatim"
	LabelMissing  NLILabel = "missing_citation"
)

// DriftRecord is the evaluator's verdict on one metric.
type DriftRecord struct {
	Metric        ExtractedMetric `json:"metric"`
	Score         DriftScore      `json:"drift_score"`
	Label         NLILabel        `json:"label"`
	Confidence    float64         `json:"confidence"`
	Mandate       string          `json:"mandate"`
	Premise       string          `json:"premise,omitempty"`
	Relevance     *float64        `json:"relevance,omitempty"`
	Justification string          `json:"justification"`
}
