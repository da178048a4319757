package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenshan/portfolio-backend/api"
	"github.com/greenshan/portfolio-backend/config"
	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/media"
	"github.com/greenshan/portfolio-backend/models"
	"github.com/greenshan/portfolio-backend/services"
	"github.com/greenshan/portfolio-backend/storage"
)

func main() {
	fmt.Println("Initializing app...")

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: Error loading .env file: %v\n", err)
	}

	connStr := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", ""),
		getEnv("DB_NAME", "portfolio"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_SSLMODE", "disable"),
	)

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  connStr,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newLogger,
	})
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}

	// Enable required PostgreSQL extensions
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		fmt.Printf("Error enabling uuid-ossp extension: %v\n", err)
		os.Exit(1)
	}

	// The slug unique index created here is the final safety net against
	// concurrent creations racing the allocator.
	if err := db.AutoMigrate(
		&models.Project{},
		&models.ProjectMedia{},
		&models.Testimonial{},
		&models.Service{},
		&models.ContactRequest{},
	); err != nil {
		fmt.Printf("Error migrating database schema: %v\n", err)
		os.Exit(1)
	}

	currentDB := database.New(db)

	store, err := newBlobStore()
	if err != nil {
		fmt.Printf("Error initializing blob storage: %v\n", err)
		os.Exit(1)
	}

	c := config.New()
	limits := media.Limits{
		MaxFileBytes:  config.GetInt64(c, "MAX_MEDIA_BYTES", media.DefaultLimits.MaxFileBytes),
		MaxPerProject: config.GetInt(c, "MEDIA_CEILING", media.DefaultLimits.MaxPerProject),
	}
	slugMutable := config.GetBool(c, "SLUG_MUTABLE", false)

	publisher := services.NewPublisher(db, store, limits, slugMutable)

	errChannel := make(chan error)
	defer close(errChannel)

	server, err := api.NewServer(currentDB, publisher)
	if err != nil {
		fmt.Printf("Error initializing server: %v\n", err)
		os.Exit(1)
	}

	go server.Start(errChannel)

	// Listen for interrupt signals to gracefully shutdown the server
	go listenToInterrupt(errChannel)

	fatalErr := <-errChannel
	fmt.Printf("Closing server: %v\n", fatalErr)

	server.ShutdownGracefully(30 * time.Second)
}

// newBlobStore selects the blob backend: local filesystem by default, S3
// when BLOB_BACKEND=s3.
func newBlobStore() (storage.BlobStore, error) {
	switch getEnv("BLOB_BACKEND", "local") {
	case "s3":
		return storage.NewS3(context.Background(), os.Getenv("S3_BUCKET"))
	default:
		return storage.NewLocal(getEnv("BLOB_ROOT", "./data/blobs"))
	}
}

// listenToInterrupt waits for SIGINT or SIGTERM and then sends an error to the error channel.
func listenToInterrupt(errChannel chan<- error) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	errChannel <- fmt.Errorf("%s", <-c)
}

// getEnv returns the value of the environment variable key or a fallback value.
func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
