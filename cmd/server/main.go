package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hydraxl/Connect4/internal/analytics"
	"github.com/hydraxl/Connect4/internal/cache"
	"github.com/hydraxl/Connect4/internal/game"
	"github.com/hydraxl/Connect4/internal/server"
	"github.com/hydraxl/Connect4/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found")
	}

	// PORT wins over ADDR so platform runtimes (Render, Fly.io, Heroku)
	// work out of the box.
	port := os.Getenv("PORT")
	var addr string
	if port != "" {
		addr = ":" + port
	} else {
		addr = getEnv("ADDR", ":8080")
	}
	botDepth := intEnv("BOT_DEPTH", game.DefaultDepth)
	idleWindow := durationEnv("IDLE_WINDOW", 30*time.Minute)
	snapshotTTL := durationEnv("SNAPSHOT_TTL", time.Hour)

	var store storage.Store
	if dsn := os.Getenv("POSTGRES_URL"); dsn != "" {
		pg, err := storage.NewPostgresStore(context.Background(), dsn)
		if err != nil {
			log.Printf("postgres disabled: %v", err)
		} else {
			if err := pg.EnsureTables(context.Background()); err != nil {
				log.Printf("postgres ensure tables failed: %v", err)
			}
			store = pg
		}
	}

	var snapshots *cache.SnapshotCache
	if url := os.Getenv("REDIS_URL"); url != "" {
		snapshots = cache.New(url, snapshotTTL)
	}

	var producer *analytics.Producer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnv("KAFKA_TOPIC", "game-events")
		producer = analytics.NewProducer(strings.Split(brokers, ","), topic)
	}

	srv := server.New(server.Config{
		BotDepth:   botDepth,
		IdleWindow: idleWindow,
		Store:      store,
		Cache:      snapshots,
		Analytics:  producer,
	})

	log.Printf("server listening on %s (bot depth %d)", addr, botDepth)
	if err := srv.Run(addr); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return time.Duration(parsed) * time.Second
		}
	}
	return fallback
}
