package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/drift-audit/internal/drift"
	"github.com/sells-group/drift-audit/internal/mandate"
	"github.com/sells-group/drift-audit/internal/model"
)

var (
	scoreClaim   string
	scoreSource  string
	scoreMandate string
)

// pairScore is one scored (premise, claim) pair.
type pairScore struct {
	Premise    string           `json:"premise"`
	Score      model.DriftScore `json:"drift_score"`
	Label      model.NLILabel   `json:"label"`
	Confidence float64          `json:"confidence"`
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one claim against a source passage",
	Long:  "Runs the verbatim check and the entailment classifier over a single claim. With --mandate the claim is also scored against that category's mandate statement.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := checkScoreFlags(scoreClaim, scoreSource, scoreMandate); err != nil {
			return err
		}
		if err := mustMode("evaluate"); err != nil {
			return err
		}

		catalog, err := mandate.LoadCatalog(cfg.Evaluate.MandatePath)
		if err != nil {
			return err
		}
		ev := drift.NewEvaluator(newClassifier(), catalog, cfg.Evaluate)

		var premises []string
		if strings.TrimSpace(scoreSource) != "" {
			premises = append(premises, scoreSource)
		}
		if scoreMandate != "" {
			stmt, ok := catalog.Statement(model.MetricCategory(strings.ToLower(scoreMandate)))
			if !ok {
				return eris.Errorf("score: unknown mandate category %q", scoreMandate)
			}
			premises = append(premises, stmt)
		}

		var out []pairScore
		for _, premise := range premises {
			v, err := ev.ScorePair(ctx, premise, scoreClaim)
			if err != nil {
				return err
			}
			out = append(out, pairScore{Premise: premise, Score: v.Score, Label: v.Label, Confidence: v.Confidence})
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func checkScoreFlags(claim, source, mandateCat string) error {
	if strings.TrimSpace(claim) == "" {
		return eris.New("score: --claim must not be blank")
	}
	if strings.TrimSpace(source) == "" && mandateCat == "" {
		return eris.New("score: --source or --mandate is required")
	}
	return nil
}

func init() {
	scoreCmd.Flags().StringVar(&scoreClaim, "claim", "", "claim to score (required)")
	scoreCmd.Flags().StringVar(&scoreSource, "source", "", "source passage the claim cites")
	scoreCmd.Flags().StringVar(&scoreMandate, "mandate", "", "mandate category: emissions, water or waste")
	_ = scoreCmd.MarkFlagRequired("claim")
	rootCmd.AddCommand(scoreCmd)
}
