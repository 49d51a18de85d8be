package main

import (
	"os"

	"github.com/voxlog/voxlog/internal/app"
)

func main() {
	os.Exit(app.Run("worker", os.Getenv("LOG_LEVEL"), run))
}
