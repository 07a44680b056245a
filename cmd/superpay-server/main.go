package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/superpage/superpay-go/db"
	"github.com/superpage/superpay-go/server"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load .env files (ignore error if file not found)
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system env vars")
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	database := db.New(logger)
	if err := database.Init(dsn); err != nil {
		logger.Fatal("database initialization failed", zap.Error(err))
	}

	srv := server.New(logger, database, server.Config{
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSEnabled: os.Getenv("CORS_ENABLED") == "true",
	})

	if err := srv.Start(port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
