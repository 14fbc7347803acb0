package main

import (
	"log"
	"net/http"

	"github.com/artur/urban-waffle/internal/admin"
	"github.com/artur/urban-waffle/internal/bot"
	"github.com/artur/urban-waffle/internal/config"
	"github.com/artur/urban-waffle/internal/fetcher"
	"github.com/artur/urban-waffle/internal/guard"
	"github.com/artur/urban-waffle/internal/handler"
	"github.com/artur/urban-waffle/internal/notify"
	"github.com/artur/urban-waffle/internal/storage"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// A store that exists but does not parse is not a fresh start, refuse to
	// run on top of it.
	store, err := storage.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}

	b, err := bot.New(cfg.Token)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	g := guard.New(store, cfg.RateLimit, cfg.MaxWarnings)
	notifier := notify.New(b.Client(), cfg.OwnerChannelID)

	tiktok := fetcher.NewTikwmClient(cfg.ExtractAPIURL, cfg.FetchTimeout)
	youtube := fetcher.NewYouTubeFetcher()

	download := handler.NewDownloadHandler(store, g, tiktok, youtube, notifier, cfg.FetchTimeout)

	b.RegisterHandler(handler.NewStartHandler(store))
	b.RegisterHandler(handler.NewStatsHandler(store))
	b.RegisterHandler(handler.NewAudioHandler(store))
	b.RegisterHandler(download)

	adminSrv := admin.New(store, cfg.OwnerKey, cfg.MaxWarnings, func(chatID int64, link string) error {
		return download.Deliver(b.Client(), chatID, nil, link)
	})
	go func() {
		log.Printf("[ADMIN] Listening on %s", cfg.AdminAddr)
		if err := http.ListenAndServe(cfg.AdminAddr, adminSrv.Router()); err != nil {
			log.Fatalf("Admin server failed: %v", err)
		}
	}()

	notifier.Startup()

	b.Run()
}
