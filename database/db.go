package database

import (
	"errors"
	"fmt"
	"log"
	"os"

	"automatisierung-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found, relying on environment")
	}

	host := os.Getenv("DB_HOST")
	if host == "" {
		host = "db"
	}
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=5432 sslmode=disable TimeZone=UTC",
		host, os.Getenv("DB_USER"), os.Getenv("DB_PASSWORD"), os.Getenv("DB_NAME"))
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})

	if err != nil {
		fmt.Println(err)
		panic("Could not connect to database")
	}
}

// AutoMigrate creates/updates all tables. Idempotent.
func AutoMigrate() error {
	return DB.AutoMigrate(
		&models.User{},
		&models.Client{},
		&models.Automation{},
		&models.ClientAutomation{},
		&models.Credit{},
		&models.ClientCredit{},
		&models.Execution{},
		&models.ClientExecution{},
		&models.Template{},
		&models.ContactSubmission{},
		&models.IdempotencyKey{},
	)
}

// FromCtx returns the *gorm.DB bound to the request: the per-request
// transaction opened by middlewares.RequestTx when present, otherwise the
// shared handle.
func FromCtx(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	if DB == nil {
		return nil, errors.New("database not initialized")
	}
	return DB, nil
}
