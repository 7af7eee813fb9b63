package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/config"
	"github.com/talkincode/botgate/internal/app"
	"github.com/talkincode/botgate/internal/gateway"
	"github.com/talkincode/botgate/internal/transport"
	"github.com/talkincode/botgate/internal/webserver"
)

var (
	h        = flag.Bool("h", false, "help usage")
	initdb   = flag.Bool("initdb", false, "drop and re-create all tables")
	conffile = flag.String("c", "botgate.yml", "config file")
)

func printHelp() {
	if *h {
		ustr := fmt.Sprintf("botgate version: %s, usage: botgate -h\nOptions:", "latest")
		fmt.Fprintf(os.Stderr, "%s\n", ustr)
		flag.PrintDefaults()
		os.Exit(0)
	}
}

func main() {
	flag.Parse()
	printHelp()
	_ = godotenv.Load()

	cfg := config.LoadConfig(*conffile)
	application := app.NewApplication(cfg)
	application.Init(cfg)
	defer application.Release()

	if *initdb {
		application.InitDb()
		zap.S().Info("database initialized")
		return
	}

	dialer := transport.NewWhatsmeowDialer(cfg.Gateway)
	registry := gateway.NewRegistry(dialer, application.Bus(), application.DB(), cfg.Gateway.CanonicalSuffix)
	bulk := gateway.NewBulkSender(registry, cfg.Gateway.BulkSendInterval)
	dispatcher := gateway.NewDispatcher(registry, bulk)
	registry.SetHandler(dispatcher.Handle)
	application.SetRegistry(registry)

	// Re-create sessions for accounts provisioned before the last restart.
	registry.RestoreAccounts()

	server := webserver.NewWebServer(application, bulk)
	go func() {
		if err := server.Start(); err != nil {
			zap.S().Errorf("control plane stopped: %v", err)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	zap.S().Info("shutting down...")
	server.Shutdown()
	for _, info := range registry.List() {
		if err := registry.Delete(info.ID); err != nil {
			zap.S().Warnf("teardown of session %s failed: %v", info.ID, err)
		}
	}
}
