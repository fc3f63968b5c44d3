package server

import (
	"fmt"

	"github.com/pingcap-incubator/tinyledger/ledger/config"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Version information, set by -ldflags at build time.
var (
	LedgerReleaseVersion = "None"
	LedgerBuildTS        = "None"
	LedgerGitHash        = "None"
)

// LogLedgerInfo logs the version information.
func LogLedgerInfo(cfg *config.Config) {
	log.Info("Welcome to " + cfg.AppName)
	log.Info("ledger", zap.String("release-version", LedgerReleaseVersion))
	log.Info("ledger", zap.String("git-hash", LedgerGitHash))
	log.Info("ledger", zap.String("utc-build-time", LedgerBuildTS))
	log.Info("ledger", zap.Stringer("config", cfg))
}

// PrintLedgerInfo prints the version information without log info.
func PrintLedgerInfo() {
	fmt.Println("Release Version:", LedgerReleaseVersion)
	fmt.Println("Git Commit Hash:", LedgerGitHash)
	fmt.Println("UTC Build Time: ", LedgerBuildTS)
}

// PrintConfigCheckMsg prints the message about configuration checks.
func PrintConfigCheckMsg(cfg *config.Config) {
	if len(cfg.WarningMsgs) == 0 {
		fmt.Println("config check successful")
		return
	}

	for _, msg := range cfg.WarningMsgs {
		fmt.Println(msg)
	}
}
