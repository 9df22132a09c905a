package main

import (
	"github.com/cashvm/authvm/cmd/authvmcli/cmd"
)

func main() {
	cmd.Execute()
}
