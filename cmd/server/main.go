package main

import (
	"log"
	"time"

	"bank-reconciliation-backend/internal/config"
	"bank-reconciliation-backend/internal/models"
	"bank-reconciliation-backend/internal/routes"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on system env")
	}

	cfg := config.Load()
	db := config.InitDB(cfg)

	db.AutoMigrate(
		&models.Invoice{},
		&models.Expense{},
		&models.BankTransaction{},
		&models.MatchRecord{},
		&models.ImportJob{},
	)

	r := gin.Default()
	// CORS config
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := routes.RegisterRoutes(r, db, cfg); err != nil {
		log.Fatalf("failed to register routes: %v", err)
	}

	r.Run(":" + cfg.Port)
}
