package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/argos/internal/marketgate"
	"github.com/wonny/argos/internal/snapshot"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "시장 게이트 단독 평가",
	Long: `시장 지표 파일만으로 GREEN/YELLOW/RED 게이트를 평가합니다.

Example:
  go run ./cmd/argos gate --indicators data/market.json`,
	RunE: runGate,
}

var gateIndicatorsPath string

func init() {
	rootCmd.AddCommand(gateCmd)

	gateCmd.Flags().StringVar(&gateIndicatorsPath, "indicators", "", "market indicators JSON artifact (required)")
	_ = gateCmd.MarkFlagRequired("indicators")
}

func runGate(cmd *cobra.Command, args []string) error {
	_, strat, log, err := setup()
	if err != nil {
		return err
	}

	loader := snapshot.NewLoader(log)
	indicators, err := loader.LoadIndicatorsFile(gateIndicatorsPath)
	if err != nil {
		return err
	}

	gate := marketgate.NewGate(strat.Gate, log)
	state := gate.Evaluate(indicators)

	fmt.Println("=== Market Gate ===")
	fmt.Printf("Date:      %s\n", state.Date.Format("2006-01-02"))
	fmt.Printf("Level:     %s\n", state.Level)
	fmt.Printf("Composite: %.1f / 100\n", state.Composite)
	fmt.Println()
	fmt.Printf("  trend:   %5.1f\n", state.Components.Trend)
	fmt.Printf("  rsi:     %5.1f\n", state.Components.RSI)
	fmt.Printf("  macd:    %5.1f\n", state.Components.MACD)
	fmt.Printf("  fx:      %5.1f\n", state.Components.FX)
	fmt.Printf("  futures: %5.1f\n", state.Components.Futures)

	return nil
}
