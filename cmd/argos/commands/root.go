package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "argos",
	Short: "Argos - AI 교차검증 기반 KRX 시그널 엔진",
	Long: `Argos Signal Engine

일별 시세/수급 스냅샷을 스크리닝·스코어링하고, 시장 게이트와
멀티 AI 프로바이더 교차검증을 거쳐 등급화된 시그널을 생성합니다.

Usage:
  go run ./cmd/argos [command]

Examples:
  go run ./cmd/argos run --snapshot data/snapshot.json --indicators data/market.json
  go run ./cmd/argos gate --indicators data/market.json
  go run ./cmd/argos screen --snapshot data/snapshot.json`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default from STRATEGY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
