package main // Entry point package

import (
	"os"

	_ "time/tzdata" // embed the zone database so APP_TIMEZONE works in scratch images

	"github.com/quickcourt/quickcourt-api/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
