package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/kjaylee/openclaw-mem/internal/cli"
)

func main() {
	// A .env in the working directory configures the workspace; missing is
	// fine.
	_ = godotenv.Load()

	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
