package main

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"

	"github.com/yeti47/agentbench/cmd"
)

func main() {
	defer memguard.Purge()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		memguard.SafeExit(1)
	}
}
