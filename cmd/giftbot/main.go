package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"github.com/susu3304/giftbot/internal/api"
	"github.com/susu3304/giftbot/internal/bot"
	"github.com/susu3304/giftbot/internal/catalog"
	"github.com/susu3304/giftbot/internal/clicks"
	"github.com/susu3304/giftbot/internal/config"
	"github.com/susu3304/giftbot/internal/db"
	"github.com/susu3304/giftbot/internal/ledger"
	"github.com/susu3304/giftbot/internal/notify"
)

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	catalogFile := pflag.String("gift-catalog", "", "YAML gift catalog to sync into the database (overrides GIFT_CATALOG_FILE)")
	migrateOnly := pflag.Bool("migrate-only", false, "run migrations and catalog sync, then exit")
	noAPI := pflag.Bool("no-api", false, "do not start the HTTP API")
	pflag.Parse()

	// Load configuration
	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *catalogFile != "" {
		cfg.GiftCatalogFile = *catalogFile
	}

	// Connect to database
	ctx := context.Background()
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.GiftCatalogFile != "" {
		gifts, err := catalog.LoadFile(cfg.GiftCatalogFile)
		if err != nil {
			log.Fatalf("Failed to load gift catalog: %v", err)
		}
		inserted, updated, err := database.SyncGifts(ctx, gifts)
		if err != nil {
			log.Fatalf("Failed to sync gift catalog: %v", err)
		}
		log.Printf("Gift catalog synced from %s: %d inserted, %d updated", cfg.GiftCatalogFile, inserted, updated)
	}

	if *migrateOnly {
		return
	}

	engine := ledger.NewEngine(database, database)
	tracker := clicks.NewTracker(cfg.ClickSessionTTL, cfg.ClickSessionMax)

	var extra []notify.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaGiftTopic)
		defer publisher.Close()
		extra = append(extra, publisher)
		log.Printf("Publishing gift events to kafka topic %s", cfg.KafkaGiftTopic)
	}

	// Initialize Discord bot
	discordBot, err := bot.New(cfg, engine, database, tracker, extra...)
	if err != nil {
		log.Fatalf("Failed to create discord bot: %v", err)
	}

	// Start Discord bot
	if err := discordBot.Start(); err != nil {
		log.Fatalf("Failed to start discord bot: %v", err)
	}
	defer discordBot.Stop()

	// Start API server
	var apiServer *api.API
	if !*noAPI {
		apiServer = api.New(cfg, database)
		go func() {
			if err := apiServer.Start(); err != nil {
				log.Printf("API server error: %v", err)
			}
		}()
	}

	// Wait for signal to stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("API shutdown error: %v", err)
		}
	}
}
