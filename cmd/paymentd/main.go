package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/alovak/cardflow-gateway/internal/logging"
	"github.com/alovak/cardflow-gateway/payeezy"
)

func main() {
	config := payeezy.LoadConfig()
	logger := logging.New(config.LogLevel)

	app := payeezy.NewApp(logger, config)
	if err := app.Start(); err != nil {
		logger.Error("starting paymentd", "err", err)
		os.Exit(1)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutting down", "signal", sig.String())

	app.Shutdown()
}
