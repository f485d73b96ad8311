package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/YelzhanWeb/prepboard/internal/adapter/logger"
	"github.com/YelzhanWeb/prepboard/internal/adapter/postgres"
	"github.com/YelzhanWeb/prepboard/internal/adapter/rabbitmq"
	"github.com/YelzhanWeb/prepboard/internal/app/kitchen"
	"github.com/YelzhanWeb/prepboard/internal/config"

	amqpAdapter "github.com/YelzhanWeb/prepboard/internal/adapter/amqp"
	httpAdapter "github.com/YelzhanWeb/prepboard/internal/adapter/http"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to the YAML config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.HTTP.Port = *port
	}

	lgr := logger.New("prepboard", logger.WithDebug(*debug))

	date, err := cfg.Kitchen.Date()
	if err != nil {
		log.Fatalf("Invalid kitchen config: %v", err)
	}
	calc, err := cfg.Kitchen.Calculator()
	if err != nil {
		log.Fatalf("Invalid kitchen config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to PostgreSQL
	db, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()

	lgr.Info("db_connected", "Connected to PostgreSQL database", "startup", map[string]interface{}{
		"host": cfg.Database.Host,
		"db":   cfg.Database.Database,
	})

	// Connect to RabbitMQ
	mqConn, err := rabbitmq.Connect(cfg.RabbitMQ)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer mqConn.Close()

	lgr.Info("rabbitmq_connected", "Connected to RabbitMQ", "startup", map[string]interface{}{
		"host": cfg.RabbitMQ.Host,
	})

	go func() {
		if amqpErr, ok := <-mqConn.NotifyClose(); ok && amqpErr != nil {
			lgr.Error("rabbitmq_connection_lost", "RabbitMQ connection lost, the change consumer will redial", "runtime", nil, amqpErr)
		}
	}()

	// Initialize repositories and messaging
	orderRepo := postgres.NewOrderRepository(db)
	menuRepo := postgres.NewMenuRepository(db)
	publisher := rabbitmq.NewPublisher(mqConn)
	consumer := rabbitmq.NewConsumer(mqConn, lgr)

	// Initialize service
	projector := kitchen.NewProjector(orderRepo, calc, date, lgr,
		kitchen.WithPublisher(publisher),
		kitchen.WithDeviceName(cfg.Kitchen.DeviceName),
		kitchen.WithRefreshInterval(cfg.Kitchen.RefreshInterval),
	)
	changeHandler := amqpAdapter.NewChangeHandler(projector, lgr)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := projector.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			lgr.Error("projector_error", "Kitchen projector stopped unexpectedly", "runtime", nil, err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := consumer.ConsumeChanges(ctx, changeHandler.HandleChange); err != nil && !errors.Is(err, context.Canceled) {
			lgr.Error("consumer_error", "Error consuming change notifications", "runtime", nil, err)
		}
	}()

	// Setup HTTP server
	mux := http.NewServeMux()
	httpAdapter.NewKitchenHandler(projector, lgr).Register(mux)
	httpAdapter.NewMenuHandler(menuRepo, lgr).Register(mux)
	httpAdapter.NewHealthHandler(map[string]httpAdapter.Check{
		"postgres": func() error {
			pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return db.Ping(pingCtx)
		},
		"rabbitmq": func() error {
			if mqConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		},
	}, lgr).Register(mux)

	// Apply middleware
	handler := httpAdapter.LoggingMiddleware(lgr)(mux)
	handler = httpAdapter.RecoveryMiddleware(lgr)(handler)

	// No WriteTimeout: /kitchen/ws connections are long-lived.
	server := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	lgr.Info("service_started", fmt.Sprintf("Kitchen board started on port %d", cfg.HTTP.Port), "startup", map[string]interface{}{
		"port":             cfg.HTTP.Port,
		"reference_date":   date.String(),
		"timezone":         calc.Location().String(),
		"lead_times":       calc.LeadTimes().AsMap(),
		"refresh_interval": cfg.Kitchen.RefreshInterval.String(),
		"device_name":      cfg.Kitchen.DeviceName,
	})

	// Graceful shutdown
	go func() {
		<-ctx.Done()

		lgr.Info("shutdown_initiated", "Shutting down kitchen board", "shutdown", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			lgr.Error("shutdown_error", "Error during shutdown", "shutdown", nil, err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lgr.Error("server_error", "Server error", "runtime", nil, err)
		stop()
	}

	wg.Wait()
	lgr.Info("service_stopped", "Kitchen board stopped", "shutdown", nil)
}
