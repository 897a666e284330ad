package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Capitan-Parrot/safety-monitor/internal/alert"
	"github.com/Capitan-Parrot/safety-monitor/internal/api"
	"github.com/Capitan-Parrot/safety-monitor/internal/config"
	"github.com/Capitan-Parrot/safety-monitor/internal/database"
	"github.com/Capitan-Parrot/safety-monitor/internal/detect"
	"github.com/Capitan-Parrot/safety-monitor/internal/dispatch"
	"github.com/Capitan-Parrot/safety-monitor/internal/kafka"
	"github.com/Capitan-Parrot/safety-monitor/internal/monitor"
	"github.com/Capitan-Parrot/safety-monitor/internal/source"
	"github.com/Capitan-Parrot/safety-monitor/internal/status"
	"github.com/Capitan-Parrot/safety-monitor/internal/storage"
)

const heartbeatInterval = 10 * time.Second

func main() {
	log.Println("Main: init...")

	cfg, err := config.LoadConfig(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Alert history is optional; without it /alerts is disabled
	var db *database.Database
	if cfg.Postgres.DSN != "" {
		db, err = database.New(cfg.Postgres.DSN)
		if err != nil {
			log.Fatal(err)
		}
		if err = db.Init(); err != nil {
			log.Fatal(err)
		}
		defer db.Close()
	}

	minioClient, err := storage.NewMinioClient(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.SnippetBucket)
	if err != nil {
		log.Fatalf("Failed connect to MinIO: %v", err)
	}

	detector := detect.NewClient(cfg.Detection.Endpoint)
	queue := alert.NewQueue()

	m := monitor.New(cfg, detector, source.MinioOpener(minioClient), queue, minioClient)

	// Kafka is optional; without it feeds are driven by config only
	var producer *kafka.Producer
	if len(cfg.Kafka.Brokers) > 0 {
		consumer, err := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.CommandTopic)
		if err != nil {
			log.Fatalf("Failed to create Kafka consumer: %v", err)
		}
		defer consumer.Close()
		consumer.StartListening(ctx)
		go m.ListenCommands(ctx, consumer)

		producer, err = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.AlertTopic, cfg.Kafka.HeartbeatTopic)
		if err != nil {
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		go m.RunHeartbeats(ctx, producer, heartbeatInterval)
	}

	var history dispatch.History
	var publisher dispatch.Publisher
	if db != nil {
		history = db
	}
	if producer != nil {
		publisher = producer
	}

	sender := dispatch.NewClient(cfg.Backend.Endpoint, cfg.Backend.APIKey, cfg.Backend.Timeout)
	dispatcher := dispatch.New(queue, sender, m.Stats(), history, publisher)
	go dispatcher.Run(ctx)

	reporter := status.New(m.Stats(), queue, time.Duration(cfg.Monitor.StatusIntervalSeconds)*time.Second)
	go reporter.Run(ctx)

	handlers := api.NewHandlers(cfg, m.Stats(), queue, db)
	go func() {
		log.Printf("Starting monitor API server on %s", cfg.API.Addr)
		if err := http.ListenAndServe(cfg.API.Addr, handlers.Router()); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	m.StartAll(ctx)

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	log.Println("Main: shutting down...")
	cancel()
	m.StopAll()
}
