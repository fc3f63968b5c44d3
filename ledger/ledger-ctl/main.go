package main

import (
	"os"

	"github.com/pingcap-incubator/tinyledger/ledger/ledger-ctl/ctl"
)

func main() {
	ctl.Start(os.Args[1:])
}
