package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/scorer"
	"github.com/wonny/argos/internal/screener"
	"github.com/wonny/argos/internal/snapshot"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "스크리닝 + 스코어링만 실행 (AI 호출 없음)",
	Long: `스냅샷에 대해 스크리너와 스코어러만 돌려 후보를 출력합니다.
게이트 평가나 AI 합의는 수행하지 않습니다.

Example:
  go run ./cmd/argos screen --snapshot data/snapshot.json`,
	RunE: runScreen,
}

var screenSnapshotPath string

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVar(&screenSnapshotPath, "snapshot", "", "market snapshot JSON artifact (required)")
	_ = screenCmd.MarkFlagRequired("snapshot")
}

func runScreen(cmd *cobra.Command, args []string) error {
	_, strat, log, err := setup()
	if err != nil {
		return err
	}

	loader := snapshot.NewLoader(log)
	snap, report, err := loader.LoadFile(screenSnapshotPath)
	if err != nil {
		return err
	}
	log.Infof("snapshot loaded: %d accepted, %d rejected", report.Total-len(report.Rejected), len(report.Rejected))

	scr := screener.NewScreener(strat.Screening, log)
	candidates, err := scr.Screen(cmd.Context(), snap)
	if err != nil {
		return err
	}

	sc := scorer.NewScorer(strat.Scoring, log)
	scores := sc.ScoreAll(cmd.Context(), candidates, snap)

	fmt.Printf("=== Screen %s ===\n", snap.Date.Format("2006-01-02"))
	fmt.Printf("Universe %d → candidates %d\n\n", snap.Count(), len(candidates))
	fmt.Printf("%-8s %-20s %8s %6s %6s %6s %6s %8s\n",
		"CODE", "NAME", "COMPOSITE", "FLOW", "INST", "PTRN", "BONUS", "CLOSE")
	for _, s := range scores {
		fmt.Printf("%-8s %-20s %9.1f %6.1f %6.1f %6.1f %6.1f %8.0f\n",
			s.Code, snap.Name(s.Code), s.Composite,
			s.FlowScore, s.InstScore, s.PatternScore, s.BonusScore, s.Close)
	}

	return nil
}
