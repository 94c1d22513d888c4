package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dd0wney/cluso-threatmodel/pkg/api"
	"github.com/dd0wney/cluso-threatmodel/pkg/auth"
	"github.com/dd0wney/cluso-threatmodel/pkg/compiler"
	"github.com/dd0wney/cluso-threatmodel/pkg/logging"
	"github.com/dd0wney/cluso-threatmodel/pkg/metrics"
	"github.com/dd0wney/cluso-threatmodel/pkg/scoring"
)

func main() {
	port := flag.Int("port", 0, "HTTP server port (default 8080, or set PORT)")
	scoringPath := flag.String("scoring", "", "Path to scoring config YAML (optional)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	// Get port from env if not provided
	if *port == 0 {
		if envPort := os.Getenv("PORT"); envPort != "" {
			if p, err := strconv.Atoi(envPort); err == nil {
				*port = p
			} else {
				*port = 8080
			}
		} else {
			*port = 8080
		}
	}

	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(*logLevel))

	var scoringCfg *scoring.Config
	if *scoringPath != "" {
		cfg, err := scoring.LoadConfig(*scoringPath)
		if err != nil {
			logger.Error("failed to load scoring config",
				logging.String("path", *scoringPath), logging.Error(err))
			os.Exit(1)
		}
		scoringCfg = cfg
		logger.Info("scoring config loaded", logging.String("path", *scoringPath))
	}

	cfg := api.Config{Port: *port}

	// Bearer tokens are enabled by TM_JWT_SECRET (32+ characters).
	if secret := os.Getenv("TM_JWT_SECRET"); secret != "" {
		jwtManager, err := auth.NewJWTManager(secret, 15*time.Minute)
		if err != nil {
			logger.Error("invalid TM_JWT_SECRET", logging.Error(err))
			os.Exit(1)
		}
		cfg.JWTManager = jwtManager
		logger.Info("bearer token auth enabled")
	}

	// A static API key is enabled by TM_API_KEY_HASH (bcrypt hash of the
	// full key) with an optional TM_API_KEY_SUBJECT.
	if hash := os.Getenv("TM_API_KEY_HASH"); hash != "" {
		subject := os.Getenv("TM_API_KEY_SUBJECT")
		if subject == "" {
			subject = "default"
		}
		keys := auth.NewAPIKeyStore()
		keys.AddKey(subject, []byte(hash))
		cfg.APIKeys = keys
		logger.Info("API key auth enabled", logging.String("subject", subject))
	}

	reg := metrics.NewRegistry()
	c := compiler.New(compiler.Options{
		ScoringConfig: scoringCfg,
		Logger:        logger,
		Metrics:       reg,
	})
	server := api.NewServer(c, logger, reg, cfg)

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("shutdown error", logging.Error(err))
		}
		logger.Info("server exited")
		os.Exit(0)
	}()

	logger.Info("server starting", logging.Int("port", *port))
	if err := server.Start(); err != nil {
		logger.Error("server error", logging.Error(err))
		os.Exit(1)
	}
}
