package main

import (
	"context"

	"github.com/dharmasatrya/flightscrape/cmd/flightscrape/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
