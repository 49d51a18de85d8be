package main

import (
	"os"

	"github.com/voxlog/voxlog/internal/app"
)

func main() {
	os.Exit(app.Run("api", os.Getenv("LOG_LEVEL"), run))
}
