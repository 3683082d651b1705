package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"github.com/streadway/amqp"

	"quickbite/api/config"
	_ "quickbite/api/docs"
	"quickbite/api/events"
	"quickbite/api/handlers"
	"quickbite/api/lifecycle"
	"quickbite/api/notify"
	"quickbite/api/relay"
	"quickbite/api/store"
	"quickbite/api/tracker"
)

// @title QuickBite API
// @version 1.0
// @description Food delivery backend: orders, real-time tracking, promotions
// @host localhost:8080
// @BasePath /api/v1

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer db.Close(context.Background())

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	rabbitConn, err := dialRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer rabbitConn.Close()

	audit, err := events.NewAuditLog(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		log.Fatal("Failed to create Kafka producer:", err)
	}
	defer audit.Close()

	outbox, err := notify.NewOutbox(rabbitConn, cfg.RabbitMQ.NotificationQueue)
	if err != nil {
		log.Fatal("Failed to create notification outbox:", err)
	}
	defer outbox.Close()

	var mailer *notify.Mailer
	if cfg.Email.Enabled {
		mailer, err = notify.NewMailer(ctx, cfg.Email)
		if err != nil {
			log.Printf("Email disabled: %v", err)
		}
	}

	publisher := relay.NewPublisher(rdb)
	trk := tracker.New(db.DriverLocations, db.Orders, rdb, publisher)
	manager := lifecycle.NewManager(
		db.Orders, db.Promotions, db.Catalog, db.DriverLocations,
		publisher, outbox, audit, cfg.Pricing,
	)
	server := handlers.NewServer(cfg, manager, trk, publisher,
		db.Orders, db.Promotions, db.Notifications)

	consumer := notify.NewConsumer(db.Notifications, db.Catalog, mailer, cfg.RabbitMQ.NotificationQueue)
	go func() {
		if err := consumer.Run(ctx, rabbitConn); err != nil && ctx.Err() == nil {
			log.Printf("Notification consumer stopped: %v", err)
		}
	}()
	go trk.Sweep(ctx)

	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: handlers.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New())

	server.RegisterRoutes(app)
	app.Get("/swagger/*", swagger.HandlerDefault)

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Fatal(err)
	}
}

func dialRabbitMQ(url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 0; i < 5; i++ {
		log.Printf("Attempting to connect to RabbitMQ (attempt %d/5)...", i+1)
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		if i < 4 {
			log.Printf("Failed to connect to RabbitMQ: %v. Retrying in 5 seconds...", err)
			time.Sleep(5 * time.Second)
		}
	}
	return nil, err
}
