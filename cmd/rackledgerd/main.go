package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rackledger/config"
	"rackledger/core/events"
	"rackledger/crypto"
	"rackledger/native/market"
	"rackledger/observability/logging"
	"rackledger/state"
	"rackledger/storage"
	"rackledger/token"
)

// logEmitter forwards engine events to the structured logger so operators
// can follow settlement activity without an external indexer.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt events.Event) {
	if l.logger == nil || evt == nil {
		return
	}
	l.logger.Info("event", slog.String("type", evt.EventType()))
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	genKey := flag.Bool("genkey", false, "Generate a key pair, print the address and private key, then exit")
	flag.Parse()

	if *genKey {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("address: %s\n", key.PubKey().Address().String())
		fmt.Printf("privateKey: %x\n", key.Bytes())
		return
	}

	env := strings.TrimSpace(os.Getenv("RACK_ENV"))
	logger := logging.Setup("rackledgerd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("Failed to load config", slog.Any("error", err))
		os.Exit(1)
	}

	treasury, err := cfg.Treasury()
	if err != nil {
		logger.Error("Failed to decode treasury address", slog.Any("error", err))
		os.Exit(1)
	}
	authority, err := cfg.Authority()
	if err != nil {
		logger.Error("Failed to decode authority address", slog.Any("error", err))
		os.Exit(1)
	}
	pool, err := cfg.Pool()
	if err != nil {
		logger.Error("Failed to decode pool address", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("Failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)

	tokens := token.NewLedger()
	tokens.SetState(manager)

	engine := market.NewEngine()
	engine.SetState(manager)
	engine.SetTokenLedger(tokens)
	engine.SetAuthPolicy(market.SingleAuthorityPolicy{Authority: authority})
	engine.SetPoolAddress(pool)
	engine.SetEmitter(logEmitter{logger: logger})

	if _, err := engine.InitializePlatform(treasury, cfg.FeeBps); err != nil {
		if !errors.Is(err, market.ErrAlreadyInitialized) {
			logger.Error("Failed to initialize platform", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("Platform already initialized, continuing")
	} else {
		logger.Info("Platform initialized",
			slog.String("treasury", cfg.TreasuryAddress),
			slog.Uint64("feeBps", uint64(cfg.FeeBps)))
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: cfg.MetricsListen, Handler: mux}
	go func() {
		logger.Info("Metrics listener started", slog.String("addr", cfg.MetricsListen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener failed", slog.Any("error", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("Shutting down")
	_ = server.Close()
}
