package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateBase      float64
	simulateCandidate float64
	simulateURL       string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "模拟一次价格差并触发告警",
	RunE: func(cmd *cobra.Command, args []string) error {
		if simulateBase <= 0 || simulateCandidate <= 0 {
			return errors.New("--base 与 --candidate 必须大于 0")
		}

		base := decimal.NewFromFloat(simulateBase)
		candidate := decimal.NewFromFloat(simulateCandidate)
		return getApp().SimulateAlert(cmd.Context(), base, candidate, simulateURL)
	},
}

func init() {
	simulateCmd.Flags().Float64Var(&simulateBase, "base", 0, "基准市场价格 (EUR)")
	simulateCmd.Flags().Float64Var(&simulateCandidate, "candidate", 0, "候选市场价格 (EUR)")
	simulateCmd.Flags().StringVar(&simulateURL, "url", "https://example.com/listing", "候选 listing 链接")
}
