package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"travelledger/config"
	"travelledger/core"
	"travelledger/observability/logging"
	"travelledger/rpc"
	"travelledger/storage"
)

const envVar = "TRAVELLEDGER_ENV"

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv(envVar))
	logger := logging.Setup("travelledgerd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	admin, err := config.DecodeAddress(cfg.AdminAddress)
	if err != nil {
		logger.Error("Invalid admin address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	ledger, err := core.NewLedger(db, admin)
	if err != nil {
		logger.Error("Failed to initialise ledger", slog.Any("error", err))
		os.Exit(1)
	}

	for _, symbol := range cfg.GenesisTokens {
		if err := ledger.AddToken(admin, symbol); err != nil {
			logger.Error("Failed to register genesis token",
				slog.String("token", symbol), slog.Any("error", err))
			os.Exit(1)
		}
	}

	logger.Info("Ledger initialised",
		slog.String("network", cfg.NetworkName),
		slog.String("admin", cfg.AdminAddress),
		slog.Int("genesisTokens", len(cfg.GenesisTokens)))

	server := rpc.NewServer(ledger)
	logger.Info("Starting JSON-RPC server", slog.String("address", cfg.RPCAddress))
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("RPC server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
