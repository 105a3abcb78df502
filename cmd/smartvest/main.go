package main

import (
	"os"

	"github.com/wonny/smartvest/cmd/smartvest/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
