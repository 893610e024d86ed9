package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/autopeer-io/roverhub/cmd/rover-hub/app"
)

func main() {
	app.NewApp().Run()
}
