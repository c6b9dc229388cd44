package main

import (
	"os"

	"marlizintel.com/intel/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
