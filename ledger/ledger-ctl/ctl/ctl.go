package ctl

import (
	"fmt"
	"os"

	"github.com/pingcap-incubator/tinyledger/ledger/ledger-ctl/command"
	"github.com/spf13/cobra"
)

// CommandFlags are the global flags of ledger-ctl.
type CommandFlags struct {
	URL    string
	APIKey string
}

const defaultURL = "http://127.0.0.1:8080"

// GetRootCmd builds the ledger-ctl command tree.
func GetRootCmd() *cobra.Command {
	commandFlags := CommandFlags{}
	rootCmd := &cobra.Command{
		Use:   "ledger-ctl",
		Short: "TinyLedger control tool",
	}
	rootCmd.PersistentFlags().StringVarP(&commandFlags.URL, "url", "u", defaultURL, "address of the ledger server")
	rootCmd.PersistentFlags().StringVarP(&commandFlags.APIKey, "api-key", "k", os.Getenv("ADMIN_API_KEY"), "admin api key for mutating commands")

	rootCmd.AddCommand(
		command.NewAccountCommand(),
		command.NewTransferCommand(),
		command.NewTransactionCommand(),
	)
	rootCmd.SilenceErrors = true
	return rootCmd
}

// Start runs ledger-ctl with args.
func Start(args []string) {
	rootCmd := GetRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOutput(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
