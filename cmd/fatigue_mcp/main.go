// Package main runs the fatigue MCP server over stdio, for local assistant use.
// The backend serves the same tools at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"net"
	"os"

	"github.com/2beens/gymfatigue/internal/config"
	"github.com/2beens/gymfatigue/internal/db"
	"github.com/2beens/gymfatigue/internal/fatigue"
	"github.com/2beens/gymfatigue/internal/gymstats/assessment"
	"github.com/2beens/gymfatigue/internal/gymstats/exercises"
	gymstatsmcp "github.com/2beens/gymfatigue/internal/gymstats/mcp"
	"github.com/2beens/gymfatigue/internal/gymstats/profiles"
	"github.com/2beens/gymfatigue/internal/logging"
	"github.com/2beens/gymfatigue/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	envFile := flag.String("envfile", ".env", "optional .env file with secrets")
	flag.Parse()

	_ = godotenv.Load(*envFile)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// stdout carries the protocol
	if cfg.LogsPath != "" {
		logging.Setup(logging.LoggerSetupParams{
			LogFileName: cfg.LogsPath,
			LogLevel:    cfg.LogLevel,
			Environment: cfg.Environment,
		})
	} else {
		log.SetOutput(os.Stderr)
		log.SetLevel(logging.GetLevel(cfg.LogLevel))
	}

	ctx := context.Background()
	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:   cfg.PostgresHost,
		DBPort:   cfg.PostgresPort,
		DBName:   cfg.PostgresDBName,
		MaxConns: 4,
	})
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer dbPool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: os.Getenv("GYMFATIGUE_REDIS_PASS"),
	})
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Errorf("close redis client: %s", err)
		}
	}()

	engine := fatigue.NewDefaultEngine()
	setsRepo := exercises.NewRepo(dbPool)
	history := exercises.NewHistoryBuilder(setsRepo)
	service := assessment.NewService(assessment.NewServiceParams{
		Engine:   engine,
		SetsRepo: setsRepo,
		History:  history,
		Profiles: profiles.NewStore(rdb),
		Sessions: assessment.NewSessionRegistry(assessment.NewSessionRegistryParams{
			Engine:       engine,
			TTL:          cfg.SessionTTL(),
			PriorFatigue: float64(cfg.DefaultPriorFatigue),
		}),
		Models:        assessment.NewModelCache(cfg.ModelCacheSizeMB, cfg.ModelCacheTTL()),
		Metrics:       metrics.NewManager("gymfatigue", "mcp", prometheus.NewRegistry()),
		HistoryWindow: cfg.HistoryWindow(),
	})

	server := gymstatsmcp.NewServer(gymstatsmcp.NewContextService(
		gymstatsmcp.NewPoolSchemaRepo(dbPool),
		service,
		history,
	))

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatal(err)
	}
}
