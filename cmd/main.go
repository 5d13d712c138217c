package main

import (
	"os"

	"github.com/parchmentlabs/folio/cmd/folio"
)

func main() {
	if err := folio.Execute(); err != nil {
		os.Exit(1)
	}
}
