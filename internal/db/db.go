package db

import (
	"log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mynewsletters/voicebrief/internal/catalog"
)

func Connect(dsn string) *gorm.DB {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	return gdb
}

// Migrate keeps the schema in step with the catalog models.
func Migrate(gdb *gorm.DB) error {
	return gdb.AutoMigrate(
		&catalog.User{},
		&catalog.Newsletter{},
		&catalog.Subscription{},
		&catalog.Issue{},
		&catalog.Story{},
		&catalog.ChatLog{},
		&catalog.BriefingRecord{},
	)
}
