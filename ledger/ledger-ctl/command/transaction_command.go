package command

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var transactionsPrefix = apiPrefix + "/transactions"

// NewTransferCommand returns the transfer command of ledger-ctl.
func NewTransferCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <source_account_id> <destination_account_id> <amount>",
		Short: "move money between two accounts, requires the api key",
		Run:   transferCommandFunc,
	}
}

// NewTransactionCommand returns the transaction subcommand of ledger-ctl.
func NewTransactionCommand() *cobra.Command {
	t := &cobra.Command{
		Use:   "transaction <subcommand>",
		Short: "transaction commands",
	}
	t.AddCommand(&cobra.Command{
		Use:   "get <transaction_id>",
		Short: "show a transaction",
		Run:   getTransactionCommandFunc,
	})
	return t
}

func transferCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 3 {
		usageErr(cmd)
		return
	}
	ids := make([]uuid.UUID, 2)
	for i := range ids {
		id, err := uuid.Parse(args[i])
		if err != nil {
			cmd.Printf("Invalid account id %q\n", args[i])
			return
		}
		ids[i] = id
	}
	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		cmd.Printf("Invalid amount %q\n", args[2])
		return
	}
	input := map[string]interface{}{
		"source_account_id":      ids[0].String(),
		"destination_account_id": ids[1].String(),
		"amount":                 amount.String(),
	}
	r, err := doRequest(cmd, transactionsPrefix, http.MethodPost, input)
	if err != nil {
		cmd.Printf("Failed to transfer: %s\n", err)
		return
	}
	cmd.Println(r)
}

func getTransactionCommandFunc(cmd *cobra.Command, args []string) {
	if len(args) != 1 {
		usageErr(cmd)
		return
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		cmd.Printf("Invalid transaction id %q\n", args[0])
		return
	}
	r, err := doRequest(cmd, transactionsPrefix+"/"+id.String(), http.MethodGet, nil)
	if err != nil {
		cmd.Printf("Failed to get transaction: %s\n", err)
		return
	}
	cmd.Println(r)
}
