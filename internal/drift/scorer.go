// Package drift scores how faithfully each extracted metric reflects its
// cited source passage and reference mandate.
package drift

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/drift-audit/internal/model"
	"github.com/sells-group/drift-audit/pkg/nli"
)

// DefaultEntailmentThreshold separates faithful from paraphrased claims.
const DefaultEntailmentThreshold = 0.8

// Verdict is the scorer's reading of one classifier call.
type Verdict struct {
	Score      model.DriftScore
	Label      model.NLILabel
	Confidence float64
}

// Scorer maps classifier output to a drift score:
//
//	entailment >= threshold  -> 0
//	entailment <  threshold  -> 1
//	neutral                  -> 2
//	contradiction            -> 3
type Scorer struct {
	threshold float64
}

// NewScorer creates a Scorer. Thresholds outside (0,1] fall back to the default.
func NewScorer(threshold float64) Scorer {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultEntailmentThreshold
	}
	return Scorer{threshold: threshold}
}

// Threshold returns the entailment probability required for score 0.
func (s Scorer) Threshold() float64 {
	return s.threshold
}

// Score reads the top prediction. An empty prediction set or a label outside
// entailment/neutral/contradiction is an error.
func (s Scorer) Score(preds []nli.Prediction) (Verdict, error) {
	top, ok := nli.Top(preds)
	if !ok {
		return Verdict{}, eris.New("drift: empty prediction set")
	}

	v := Verdict{Label: model.NLILabel(top.Label), Confidence: top.Score}
	switch v.Label {
	case model.LabelEntailment:
		if top.Score >= s.threshold {
			v.Score = model.DriftFaithful
		} else {
			v.Score = model.DriftParaphrased
		}
	case model.LabelNeutral:
		v.Score = model.DriftAbstract
	case model.LabelContradiction:
		v.Score = model.DriftDrifted
	default:
		return Verdict{}, eris.Errorf("drift: unknown classifier label %q", top.Label)
	}
	return v, nil
}
