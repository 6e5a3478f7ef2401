package main

import (
	"fmt"
	"os"

	"github.com/mindbridge/counsel-api/app"
)

func main() {
	if err := app.SetupAndRunServer(); err != nil {
		fmt.Fprintln(os.Stderr, "counsel-api:", err)
		os.Exit(1)
	}
}
