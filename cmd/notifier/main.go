// The notifier is the Go counterpart of the notify-discord edge
// function: it watches the item-change channel and announces every new
// item in the Discord server.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/JimJos-Calderon/app-web-mylist/internal/logger"
	"github.com/JimJos-Calderon/app-web-mylist/internal/notify"
	"github.com/JimJos-Calderon/app-web-mylist/internal/realtime"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
)

type Config struct {
	DatabaseURL       string `envconfig:"DATABASE_URL" required:"true"`
	RedisAddr         string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword     string `envconfig:"REDIS_PASSWORD"`
	EventsChannel     string `envconfig:"EVENTS_CHANNEL" default:"items:events"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL" required:"true"`
}

func main() {
	logger.Init()
	log := logger.Get()

	_ = godotenv.Load()
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.WithError(err).Fatal("env error")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.WithError(err).Fatal("db connect error")
	}
	st := store.New(db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb, err := realtime.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.WithError(err).Fatal("redis connect error")
	}
	bus := realtime.NewBus(rdb, cfg.EventsChannel)
	webhook := notify.NewWebhook(cfg.DiscordWebhookURL)

	events, cancel := bus.Subscribe(ctx)
	defer cancel()

	log.WithField("channel", cfg.EventsChannel).Info("notifier listening")
	for {
		select {
		case <-ctx.Done():
			log.Info("notifier stopping")
			os.Exit(0)
		case ev, open := <-events:
			if !open {
				log.Warn("event channel closed")
				os.Exit(1)
			}
			handleEvent(ctx, st, webhook, ev)
		}
	}
}

// handleEvent announces inserts on the items table; everything else is
// ignored. A failed announcement is logged and dropped, never retried.
func handleEvent(ctx context.Context, st *store.Store, webhook *notify.Webhook, ev realtime.Event) {
	log := logger.Get()
	if ev.Type != realtime.EventInsert || ev.Table != "items" || ev.Record == nil {
		return
	}
	item := ev.Record

	ctx, cancelCtx := context.WithTimeout(ctx, 15*time.Second)
	defer cancelCtx()

	authorName := ""
	if profile, err := st.GetProfile(ctx, item.UserID); err == nil {
		authorName = profile.Username
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.WithError(err).Warn("author lookup failed")
	}

	listName := ""
	if list, err := st.GetList(ctx, item.ListID); err == nil {
		listName = list.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.WithError(err).Warn("list lookup failed")
	}

	embed := notify.BuildEmbed(item, authorName, listName)
	if err := webhook.Post(ctx, embed); err != nil {
		log.WithError(err).WithField("titulo", item.Titulo).Error("discord post failed")
		return
	}
	log.WithField("titulo", item.Titulo).Info("announced")
}
