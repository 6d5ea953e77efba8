package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	sdk "github.com/cosmos/cosmos-sdk/types"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mandatedisrael/zenfi/internal/config"
	"github.com/mandatedisrael/zenfi/internal/logger"
	"github.com/mandatedisrael/zenfi/internal/scheduler"
	"github.com/mandatedisrael/zenfi/internal/state"
	"github.com/mandatedisrael/zenfi/internal/strategy"
	"github.com/mandatedisrael/zenfi/internal/token"
	"github.com/mandatedisrael/zenfi/internal/types"
	"github.com/mandatedisrael/zenfi/internal/vault"
	"github.com/mandatedisrael/zenfi/internal/web"
)

// main is the entry point for the zenfi vault engine.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Zenfi Vault Engine Starting...")

	// Initialize Database Connection (harvest snapshots and operation receipts)
	dbCfg := state.DBConfig{
		Host: os.Getenv("DB_HOST"), Port: mustAtoi(os.Getenv("DB_PORT"), 5432),
		User: os.Getenv("DB_USER"), Password: os.Getenv("DB_PASSWORD"),
		DBName: os.Getenv("DB_NAME"), SSLMode: os.Getenv("DB_SSLMODE"),
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// --- 2. Ledger Initialization (with Safety Switch) ---
	// The engine runs against an in-process ledger. Until an on-chain ledger
	// binding exists, starting in any other mode halts the process.
	mode := os.Getenv("ZENFI_MODE")
	if mode != "sim" {
		log.Fatal().Msg("ZENFI_MODE is not set to 'sim'. Halting to prevent accidental execution. Set ZENFI_MODE=sim to run.")
	}
	log.Warn().Msg("Initializing zenfi in SIM mode. All balances live on an in-process ledger.")

	bank := token.NewBank()

	// --- 3. Create Engine Instance with Dependency Injection ---
	engineConfig := vault.Config{
		Ledger:       bank,
		Journal:      state.NewPostgresJournal(),
		VaultAddr:    config.VaultAddress,
		Owner:        config.OwnerAddress,
		FeeRecipient: config.FeeRecipient,
		RewardDenom:  config.RewardDenom,
		Fees: types.FeeConfig{
			PerformanceBps: uint32(config.PerformanceFeeBps),
			WithdrawalBps:  uint32(config.WithdrawalFeeBps),
			ManagementBps:  uint32(config.ManagementFeeBps),
		},
	}

	engine, err := vault.NewEngine(engineConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create vault engine")
	}
	log.Info().Msg("Vault engine created successfully")

	if err := seedSimEnvironment(engine, bank); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed sim environment")
	}

	// --- 4. Run Web Server and Scheduler ---
	webPort := os.Getenv("WEB_PORT")
	if webPort == "" {
		webPort = "8080"
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched, err := scheduler.New(scheduler.Config{
		Engine:            engine,
		Owner:             config.OwnerAddress,
		HarvestInterval:   config.HarvestInterval,
		RebalanceInterval: config.RebalanceInterval,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		webServer := web.NewWebServer(engine, webPort)
		log.Info().Str("port", webPort).Str("url", "http://localhost:"+webPort).Msg("Starting zenfi web API")
		return webServer.Start()
	})

	group.Go(func() error {
		return sched.Run(ctx)
	})

	if err := group.Wait(); err != nil && err != context.Canceled {
		log.Fatal().Err(err).Msg("Zenfi exited with error")
	}
	log.Info().Msg("Zenfi shut down cleanly")
}

// seedSimEnvironment registers a demo pair and two yield strategies, funds a
// pair of demo accounts and opens an initial position so the scheduler has
// something to harvest from the first tick onward.
func seedSimEnvironment(engine *vault.Engine, bank *token.Bank) error {
	owner := config.OwnerAddress

	const (
		demoAlice = "sim-alice"
		demoBob   = "sim-bob"
		denomAtom = "uatom"
		denomOsmo = "uosmo"
	)

	seedAmount := sdkmath.NewInt(1_000_000_000)
	for _, account := range []string{demoAlice, demoBob} {
		for _, denom := range []string{denomAtom, denomOsmo} {
			if err := bank.Mint(account, sdk.Coin{Denom: denom, Amount: seedAmount}); err != nil {
				return err
			}
		}
	}

	pairID, err := engine.AddPair(owner, denomAtom, denomOsmo, sdkmath.NewInt(1000))
	if err != nil {
		return err
	}

	for i, denom := range []string{denomAtom, denomOsmo} {
		adapter, err := strategy.NewSimpleYield(strategy.SimpleYieldConfig{
			Ledger:      bank,
			VaultAddr:   engine.Address(),
			SelfAddr:    "sim-strategy-" + strconv.Itoa(i),
			WantDenom:   denom,
			RewardDenom: config.RewardDenom,
			RateBps:     500,
		})
		if err != nil {
			return err
		}
		if _, err := engine.AddStrategy(owner, adapter, 4000, "simple-yield-"+denom); err != nil {
			return err
		}
	}

	deposit := sdkmath.NewInt(100_000_000)
	for _, account := range []string{demoAlice, demoBob} {
		for _, denom := range []string{denomAtom, denomOsmo} {
			if err := bank.Approve(account, engine.Address(), sdk.Coin{Denom: denom, Amount: deposit}); err != nil {
				return err
			}
		}
		if _, err := engine.AddLiquidity(account, pairID, deposit, deposit, sdkmath.ZeroInt(), time.Now().Add(time.Minute)); err != nil {
			return err
		}
	}

	log.Info().
		Uint64("pair_id", uint64(pairID)).
		Str("total_assets", engine.TotalAssets().String()).
		Msg("Sim environment seeded")
	return nil
}

// Helper to convert string to int with a default value
func mustAtoi(s string, defaultValue int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return i
}
