package main

import (
	"os"

	"github.com/tabledeck/tabledeck/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
