package config

import (
	"fmt"

	"github.com/booknest/bookshelf-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var Database *gorm.DB

func Connect() error {
	var err error
	Database, err = gorm.Open(postgres.Open(Env.DatabaseURL), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	err = Database.AutoMigrate(&models.User{}, &models.Book{}, &models.UserBook{})
	if err != nil {
		return fmt.Errorf("failed to auto migrate database: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool during shutdown.
func Close() error {
	if Database == nil {
		return nil
	}
	sqlDB, err := Database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
