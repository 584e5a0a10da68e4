package main

import (
	"os"

	"github.com/jaypatrick/ad-blocking-sub007/cmd/rules-compiler/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
