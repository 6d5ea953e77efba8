package types

// Fee ceilings in basis points. A SetFees call above any ceiling fails whole.
const (
	MaxPerformanceFeeBps = 2000
	MaxWithdrawalFeeBps  = 200
	MaxManagementFeeBps  = 500
)

// FeeConfig is the vault-wide fee schedule.
type FeeConfig struct {
	PerformanceBps uint32 `json:"performance_bps"` // cut of gross harvested yield
	WithdrawalBps  uint32 `json:"withdrawal_bps"`  // cut of each asset amount on removeLiquidity
	ManagementBps  uint32 `json:"management_bps"`  // annualized cut of total assets, accrued at harvest
}

// Validate checks every fee against its ceiling.
func (f FeeConfig) Validate() bool {
	return f.PerformanceBps <= MaxPerformanceFeeBps &&
		f.WithdrawalBps <= MaxWithdrawalFeeBps &&
		f.ManagementBps <= MaxManagementFeeBps
}
