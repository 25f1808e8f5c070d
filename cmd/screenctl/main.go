package main

import (
	"os"

	"github.com/JonMunkholm/checkbench/cmd/screenctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
