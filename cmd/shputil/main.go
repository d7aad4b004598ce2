package main

import (
	"github.com/Ulysses-Xu/go-shp/internal/cli"
	"github.com/joho/godotenv"
)

func main() {
	// SHPUTIL_* settings may come from a .env file in the working directory.
	_ = godotenv.Load()
	cli.Execute()
}
