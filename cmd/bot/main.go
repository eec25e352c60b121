package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"wallet-sweeper-go/internal/client"
	"wallet-sweeper-go/internal/config"
	"wallet-sweeper-go/internal/logger"
	"wallet-sweeper-go/internal/metrics"
	"wallet-sweeper-go/internal/sweeper"
	"wallet-sweeper-go/internal/wallet"
)

const Version = "1.0.0"

// CLI flags
var (
	configFile   = flag.String("config", "", "Path to config file")
	envFile      = flag.String("env", "", "Path to .env file")
	network      = flag.String("network", "", "Network to use (mainnet/devnet)")
	logLevel     = flag.String("log-level", "", "Log level (debug/info/warn/error)")
	watchWallet  = flag.String("watch", "", "Wallet address to watch (overrides config)")
	minSolOutput = flag.Uint64("min-sol-output", 0, "Minimum lamports accepted per sell (0 = no floor)")
	enableMetric = flag.Bool("metrics", false, "Enable the Prometheus metrics endpoint")
)

// App wires the sweeper components together
type App struct {
	config      *config.Config
	logger      *logger.Logger
	tradeLogger *logger.TradeLogger
	rpcClient   *client.Client
	wsClient    *client.WSClient
	wallet      *wallet.Wallet
	metrics     *metrics.Metrics
	sweeper     *sweeper.Sweeper
	ctx         context.Context
	cancel      context.CancelFunc
}

func main() {
	flag.Parse()

	cfg := loadConfigurationWithOverrides()

	log, err := logger.NewLogger(logger.LogConfig{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		LogToFile:   cfg.Logging.LogToFile,
		LogFilePath: cfg.Logging.LogFilePath,
		TradeLogDir: cfg.Logging.TradeLogDir,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	printBanner(log, cfg)

	app, err := NewApp(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create application")
	}

	if err := app.Start(); err != nil {
		log.WithError(err).Fatal("Failed to start application")
	}
}

func loadConfigurationWithOverrides() *config.Config {
	cfg, err := config.LoadConfig(*configFile, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// CLI overrides
	if *network != "" {
		cfg.Network = *network
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *watchWallet != "" {
		cfg.WatchedWallet = *watchWallet
	}
	if *minSolOutput > 0 {
		cfg.Trading.MinSolOutput = *minSolOutput
	}
	if *enableMetric {
		cfg.Advanced.EnableMetrics = true
	}

	return cfg
}

func printBanner(log *logger.Logger, cfg *config.Config) {
	log.Info("==========================================")
	log.Info("       Wallet Sweeper for pump.fun        ")
	log.Info("==========================================")
	log.LogStartup(Version, cfg.Network, cfg.WatchedWallet)
}

// NewApp creates the application and all of its components
func NewApp(cfg *config.Config, log *logger.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	rpcClient := client.NewClient(client.ClientConfig{
		RPCEndpoint: cfg.RPCUrl,
		APIKey:      cfg.RPCAPIKey,
		Timeout:     cfg.RPCTimeout(),
	}, log.Logger)

	wsClient := client.NewWSClient(cfg.WSUrl, log.Logger)

	w, err := wallet.NewWallet(wallet.WalletConfig{
		PrivateKey: cfg.PrivateKey,
		Mnemonic:   cfg.Mnemonic,
		Network:    cfg.Network,
	}, rpcClient, log.Logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize wallet: %w", err)
	}

	tradeLogger, err := logger.NewTradeLogger(cfg.Logging.TradeLogDir, log)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize trade logger: %w", err)
	}

	m := metrics.NewMetrics()

	blockhashes := sweeper.NewBlockhashCache(rpcClient, cfg.BlockhashRefreshInterval(), m, log.Logger)

	executor, err := sweeper.NewTradeExecutor(w, rpcClient, blockhashes, log, tradeLogger, m, cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize trade executor: %w", err)
	}

	sw, err := sweeper.NewSweeper(wsClient, rpcClient, executor, blockhashes, log, m, cfg)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize sweeper: %w", err)
	}

	return &App{
		config:      cfg,
		logger:      log,
		tradeLogger: tradeLogger,
		rpcClient:   rpcClient,
		wsClient:    wsClient,
		wallet:      w,
		metrics:     m,
		sweeper:     sw,
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Start runs the application until a shutdown signal arrives
func (a *App) Start() error {
	balance, err := a.wallet.GetBalanceSOL(a.ctx)
	if err != nil {
		a.logger.WithError(err).Warn("⚠️ Could not fetch wallet balance")
	} else {
		a.logger.WithField("balance_sol", balance).Info("💰 Wallet balance")
	}

	if a.config.Advanced.EnableMetrics {
		go func() {
			if err := a.metrics.Serve(a.ctx, a.config.Advanced.MetricsPort, a.logger.Logger); err != nil {
				a.logger.WithError(err).Error("❌ Metrics server error")
			}
		}()
	}

	if err := a.sweeper.Start(a.ctx); err != nil {
		return fmt.Errorf("failed to start sweeper: %w", err)
	}

	a.logger.Info("🎯 Sweeper running - watching for incoming tokens")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	a.logger.Info(fmt.Sprintf("🛑 Received signal: %v", sig))
	a.shutdown()

	return nil
}

func (a *App) shutdown() {
	a.logger.LogShutdown("signal")

	if err := a.sweeper.Stop(); err != nil {
		a.logger.WithError(err).Error("Error stopping sweeper")
	}

	a.cancel()
	a.logger.Info("👋 Shutdown complete")
}
