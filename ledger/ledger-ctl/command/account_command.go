package command

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var accountsPrefix = apiPrefix + "/accounts"

// NewAccountCommand returns the account subcommand of ledger-ctl.
func NewAccountCommand() *cobra.Command {
	a := &cobra.Command{
		Use:   "account <subcommand>",
		Short: "account commands",
	}
	a.AddCommand(NewListAccountsCommand())
	a.AddCommand(NewGetAccountCommand())
	a.AddCommand(NewCreateAccountCommand())
	a.AddCommand(NewAccountTransactionsCommand())
	return a
}

// NewListAccountsCommand returns the account list subcommand.
func NewListAccountsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list all accounts",
		Run:   listAccountsCommandFunc,
	}
}

// NewGetAccountCommand returns the account get subcommand.
func NewGetAccountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <account_id>",
		Short: "show an account",
		Run:   getAccountCommandFunc,
	}
}

// NewCreateAccountCommand returns the account create subcommand.
func NewCreateAccountCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <owner_name> <initial_balance>",
		Short: "open an account, requires the api key",
		Run:   createAccountCommandFunc,
	}
}

// NewAccountTransactionsCommand returns the account transactions subcommand.
func NewAccountTransactionsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transactions <account_id>",
		Short: "show the transactions of an account",
		Run:   accountTransactionsCommandFunc,
	}
}

func listAccountsCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 0 {
		usageErr(cmd)
		return
	}
	r, err := doRequest(cmd, accountsPrefix, http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to list accounts: %s\n", err)
		return
	}
	cmd.Println(r)
}

func getAccountCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		usageErr(cmd)
		return
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		cmd.Printf("Invalid account id %q\n", args[0])
		return
	}
	r, err := doRequest(cmd, accountsPrefix+"/"+id.String(), http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get account: %s\n", err)
		return
	}
	cmd.Println(r)
}

func createAccountCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 2 {
		usageErr(cmd)
		return
	}
	balance, err := decimal.NewFromString(args[1])
	if err != nil {
		cmd.Printf("Invalid balance %q\n", args[1])
		return
	}
	input := map[string]interface{}{
		"owner_name": args[0],
		"balance":    balance.String(),
	}
	r, err := doRequest(cmd, accountsPrefix, http.MethodPost, input)
	if err != nil {
		cmd.Printf("Failed to create account: %s\n", err)
		return
	}
	cmd.Println(r)
}

func accountTransactionsCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		usageErr(cmd)
		return
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		cmd.Printf("Invalid account id %q\n", args[0])
		return
	}
	r, err := doRequest(cmd, accountsPrefix+"/"+id.String()+"/transactions", http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get transactions: %s\n", err)
		return
	}
	cmd.Println(r)
}
