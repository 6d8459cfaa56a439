package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pup/internal/client/cli"
	"github.com/dmitrijs2005/pup/internal/client/config"
)

// Set with -ldflags "-X main.buildVersion=..."
var (
	buildVersion = "N/A"
	buildDate    = "N/A"
)

func main() {

	fmt.Fprintf(os.Stdout, "Build version: %s\nBuild date: %s\n", buildVersion, buildDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	app, err := cli.NewApp(ctx, cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
