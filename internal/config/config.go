package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// VaultAddress is the ledger account that holds pooled assets and locked shares.
	VaultAddress string
	// OwnerAddress is the account allowed to run owner-gated operations.
	OwnerAddress string
	// FeeRecipient is the account that receives performance, withdrawal and
	// management fees.
	FeeRecipient string

	// RewardDenom is the denomination strategies pay yield in.
	RewardDenom string

	// PerformanceFeeBps is the cut of harvested yield, in basis points.
	PerformanceFeeBps uint64
	// WithdrawalFeeBps is the cut of withdrawn principal, in basis points.
	WithdrawalFeeBps uint64
	// ManagementFeeBps is the annualized fee on assets under management, in basis points.
	ManagementFeeBps uint64

	// HarvestInterval is how often the scheduler runs a harvest cycle.
	HarvestInterval time.Duration
	// RebalanceInterval is how often the scheduler re-targets strategy allocations.
	RebalanceInterval time.Duration
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Addresses and the reward denom are required; fees and intervals fall back to defaults.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	VaultAddress, err = getEnv("ZENFI_VAULT_ADDRESS")
	if err != nil {
		return err
	}

	OwnerAddress, err = getEnv("ZENFI_OWNER_ADDRESS")
	if err != nil {
		return err
	}

	FeeRecipient, err = getEnv("ZENFI_FEE_RECIPIENT")
	if err != nil {
		return err
	}

	RewardDenom, err = getEnv("ZENFI_REWARD_DENOM")
	if err != nil {
		return err
	}

	PerformanceFeeBps, err = getEnvAsUint64WithDefault("ZENFI_PERFORMANCE_FEE_BPS", 1000)
	if err != nil {
		return err
	}

	WithdrawalFeeBps, err = getEnvAsUint64WithDefault("ZENFI_WITHDRAWAL_FEE_BPS", 50)
	if err != nil {
		return err
	}

	ManagementFeeBps, err = getEnvAsUint64WithDefault("ZENFI_MANAGEMENT_FEE_BPS", 200)
	if err != nil {
		return err
	}

	HarvestInterval, err = getEnvAsDurationWithDefault("ZENFI_HARVEST_INTERVAL", 1*time.Hour)
	if err != nil {
		return err
	}

	RebalanceInterval, err = getEnvAsDurationWithDefault("ZENFI_REBALANCE_INTERVAL", 6*time.Hour)
	if err != nil {
		return err
	}

	log.Debug().
		Str("VaultAddress", VaultAddress).
		Str("OwnerAddress", OwnerAddress).
		Uint64("PerformanceFeeBps", PerformanceFeeBps).
		Uint64("WithdrawalFeeBps", WithdrawalFeeBps).
		Uint64("ManagementFeeBps", ManagementFeeBps).
		Dur("HarvestInterval", HarvestInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsUint64WithDefault retrieves an environment variable as a uint64,
// returning the default when unset. Returns error only on a malformed value.
func getEnvAsUint64WithDefault(key string, def uint64) (uint64, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return def, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsDurationWithDefault retrieves an environment variable as a
// time.Duration ("30m", "1h"), returning the default when unset.
func getEnvAsDurationWithDefault(key string, def time.Duration) (time.Duration, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return def, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	return value, nil
}
