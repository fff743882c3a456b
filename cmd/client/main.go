package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/akarpovs/authflow/internal/client/cli"
	"github.com/akarpovs/authflow/internal/client/config"
	"github.com/akarpovs/authflow/internal/logging"
)

func main() {
	log := logging.NewDefault()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error(context.Background(), "configuration error", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(cfg, log)
	defer app.Close()

	app.Run(ctx)
}
