package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"euchre/internal/app"
	"euchre/internal/bot"
	"euchre/internal/config"
	"euchre/internal/domain"
	"euchre/internal/ports"
	"euchre/internal/ports/natsbus"
	"euchre/internal/ports/ws"
)

func main() {
	cfg := config.LoadServerConfig()

	logger := logrus.New()
	logger.SetLevel(cfg.LogLevel)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log := logrus.NewEntry(logger).WithField("service", "euchre-server")

	if err := config.LoadGameConfig(cfg.GameConfigPath); err != nil {
		log.WithError(err).Warn("using default game config")
	}
	if err := bot.LoadIdentities("data/bot_identities.json"); err != nil {
		log.WithError(err).Warn("bot identities not loaded, bots get generic names")
	}

	var pub ports.StatePublisher
	if cfg.NatsURL != "" {
		p, nc, err := natsbus.Connect(cfg.NatsURL, log)
		if err != nil {
			log.WithError(err).Fatal("nats")
		}
		defer nc.Drain()
		pub = p
		log.WithField("url", cfg.NatsURL).Info("publishing table state to nats")
	}

	svc := app.NewService(domain.NewRandShuffler(nil))
	server := ws.NewServer(ws.NewGame(svc, pub, config.GetGameConfig(), log), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.ListenAndServe(ctx, cfg.Addr); err != nil {
		log.WithError(err).Error("server stopped")
		os.Exit(1)
	}
	log.Info("shut down")
}
