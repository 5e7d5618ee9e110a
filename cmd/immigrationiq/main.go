package main

import (
	"github.com/joho/godotenv"

	"immigrationiq/internal/cli"
)

func main() {
	// API keys live in .env during local development; a missing file
	// is fine, the environment may already be populated.
	_ = godotenv.Load()

	cli.Execute()
}
