package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap-incubator/tinyledger/ledger/server"
	"github.com/pingcap-incubator/tinyledger/ledger/storage"
	"github.com/pingcap-incubator/tinyledger/ledger/storage/standalone_storage"
	"github.com/pingcap-incubator/tinyledger/ledger/transfer"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()
	err := cfg.Parse(os.Args[1:])

	if cfg.Version {
		server.PrintLedgerInfo()
		exit(0)
	}

	switch errors.Cause(err) {
	case nil:
	case flag.ErrHelp:
		exit(0)
	default:
		log.Fatal("parse cmd flags error", zap.Error(err))
	}

	if cfg.ConfigCheck {
		server.PrintConfigCheckMsg(cfg)
		exit(0)
	}

	err = cfg.SetupLogger()
	if err == nil {
		log.ReplaceGlobals(cfg.GetZapLogger(), cfg.GetZapLogProperties())
	} else {
		log.Fatal("initialize logger error", zap.Error(err))
	}
	// Flushing any buffered log entries
	defer log.Sync()

	server.LogLedgerInfo(cfg)
	for _, msg := range cfg.WarningMsgs {
		log.Warn(msg)
	}

	var store storage.Storage
	switch cfg.Storage {
	case config.StorageBadger:
		store = standalone_storage.NewStandAloneStorage(cfg)
	default:
		store = storage.NewMemStorage()
	}
	if err = store.Start(); err != nil {
		log.Fatal("start ledger store failed", zap.Error(err))
	}

	engine := transfer.NewEngine(store, cfg.LatchSlots)
	n, err := engine.Recover()
	if err != nil {
		log.Fatal("recover pending transactions failed", zap.Error(err))
	}
	if n > 0 {
		log.Warn("pending transactions marked failed", zap.Int("count", n))
	}
	if cfg.SeedDemoAccounts {
		accounts, err := engine.SeedDemoAccounts()
		if err != nil {
			log.Fatal("seed demo accounts failed", zap.Error(err))
		}
		log.Info("demo accounts", zap.Int("created", len(accounts)))
	}

	svr := server.NewServer(cfg, engine)

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	closed := make(chan os.Signal, 1)
	go func() {
		sig := <-sc
		log.Info("Got signal to exit", zap.String("signal", sig.String()))
		svr.Close()
		closed <- sig
	}()

	if err := svr.Run(); err != nil {
		log.Fatal("run server failed", zap.Error(err))
	}
	sig := <-closed

	if err := store.Stop(); err != nil {
		log.Error("stop ledger store failed", zap.Error(err))
	}
	switch sig {
	case syscall.SIGTERM:
		exit(0)
	default:
		exit(1)
	}
}

func exit(code int) {
	log.Sync()
	os.Exit(code)
}
