package main

import (
	"context"
	"log"
	"os"

	"github.com/passtree/passtree/internal/admincli"
	"github.com/passtree/passtree/internal/server/config"
)

func main() {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := admincli.NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	if err := app.Run(ctx, admincli.PositionalArgs(os.Args[1:])); err != nil {
		log.Fatalf("%v", err)
	}
}
