package main

import (
	"os"

	"github.com/autopeer-io/roverhub/internal/roverctl"
)

func main() {
	if err := roverctl.NewRoverctlCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
