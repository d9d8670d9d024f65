package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/juliosud/yummo4-sub000/broker"
	"github.com/juliosud/yummo4-sub000/config"
	"github.com/juliosud/yummo4-sub000/database"
	"github.com/juliosud/yummo4-sub000/router"
	"github.com/juliosud/yummo4-sub000/services"
	"github.com/juliosud/yummo4-sub000/utils"
)

func main() {
	// Initialize logger
	utils.InitLogger()

	// Load .env dan environment
	cfg, err := config.Load()
	if err != nil {
		utils.ErrorLogger.Fatalf("Invalid configuration: %v", err)
	}
	utils.SetLevel(cfg.LogLevel)
	utils.SetJWTSecret(cfg.JWTSecret)

	// Set gin mode
	if cfg.GinMode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize store
	s, err := database.NewStore(cfg)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.SeedAdmin(ctx, s, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		utils.ErrorLogger.Errorf("Error seeding admin account: %v", err)
	}

	app := services.NewApp(s, services.Options{
		PublicOrigin: cfg.PublicOrigin,
		PollInterval: cfg.SessionPollInterval,
		CheckTimeout: cfg.SessionCheckTimeout,
	})
	if err := app.Warm(ctx); err != nil {
		utils.ErrorLogger.Fatalf("Failed to load tables and orders: %v", err)
	}
	cancel()

	// Broker opsional, tanpa RABBITMQ_URL event hanya ke websocket
	var publisher broker.Publisher = broker.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		rabbit, err := broker.NewRabbitPublisher(cfg.RabbitMQURL)
		if err != nil {
			utils.ErrorLogger.Errorf("RabbitMQ unavailable, continuing without broker: %v", err)
		} else {
			publisher = rabbit
		}
	}
	defer publisher.Close()

	// Change monitor: change feed -> websocket + broker
	monitor := services.NewChangeMonitor(s, publisher)
	monitor.Interval = cfg.ChangePollInterval
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(app, cfg)

	// Set trusted proxies
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		utils.ErrorLogger.Errorf("Error setting trusted proxies: %v", err)
	}

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
