package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"lightcycle/internal/arena"
	"lightcycle/internal/config"
	"lightcycle/internal/observability"
	"lightcycle/internal/transport"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables only")
	}

	log.Println("================================")
	log.Println(" LIGHTCYCLE ARENA ENGINE")
	log.Println("================================")

	appConfig := config.Load()
	arenaCfg := appConfig.Arena
	timingCfg := appConfig.Timing
	serverCfg := appConfig.Server

	log.Printf("arena: %gx aspect, %d tps, %d sub-ticks, %d partitions",
		arenaCfg.AspectRatio, arenaCfg.TickRate, arenaCfg.SubTickRate, arenaCfg.NumPartitions)

	engine := arena.NewEngine(arenaCfg, timingCfg)

	eventLogPath := getEnvWithDefault("EVENT_LOG_PATH", "events.jsonl")
	if err := engine.StartEventLog(eventLogPath); err != nil {
		log.Printf("event log disabled: %v", err)
	} else {
		log.Printf("event log: %s", eventLogPath)
	}

	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		debugCfg := observability.DefaultConfig()
		if err := observability.StartDebugServer(debugCfg); err != nil {
			log.Printf("debug server disabled: %v", err)
		} else {
			log.Printf("debug server on http://%s/metrics", debugCfg.ListenAddr)
		}
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		parts := strings.Split(origins, ",")
		for i, p := range parts {
			parts[i] = strings.TrimSpace(p)
		}
		transport.AllowedOrigins = parts
	}

	router := transport.NewRouter(engine, timingCfg)

	engine.Start()
	log.Println("engine started")

	addr := ":" + strconv.Itoa(serverCfg.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("listening on http://localhost%s/ws", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	httpServer.Close()
	engine.StopEventLog()
	engine.Stop()
	log.Println("goodbye")
}

func getEnvWithDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

