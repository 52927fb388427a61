package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/critic-dev/critic/internal/cli"
)

func main() {
	// Missing .env files are fine; real env vars still apply.
	_ = godotenv.Load()
	os.Exit(cli.Run())
}
