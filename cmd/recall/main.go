package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/lazypower/recall/internal/cli"
)

func main() {
	// Optional .env for provider credentials (OPENAI_API_KEY etc).
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
