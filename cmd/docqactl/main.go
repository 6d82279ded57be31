package main

import (
	"os"

	"docqa-backend/internal/shared/config"
)

func main() {
	if err := newRootCmd(config.Load, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}
