package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"timer-service/cache"
	"timer-service/config"
	"timer-service/database"
	"timer-service/models"
	"timer-service/server"
	"timer-service/services"

	_ "github.com/mattn/go-sqlite3"
	"github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	commandFlag := fs.String("command", "start", "Command to run: start, migrate, create-migration, create-superuser")
	nameFlag := fs.String("name", "", "Migration name (alphanum+underscore only)")
	emailFlag := fs.String("email", "", "Superuser email")
	passwordFlag := fs.String("password", "", "Superuser password")

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	switch *commandFlag {
	case "start":
		server.StartServer(cfg)
	case "migrate":
		server.InitLogger()
		database.InitializeDatabase(cfg.Database).Close()
	case "create-migration":
		server.InitLogger()
		if err := database.CreateMigration(cfg.Database.MigrationsDir, *nameFlag); err != nil {
			logger.Error("Failed to create migration", zap.Error(err))
			os.Exit(1)
		}
	case "create-superuser":
		server.InitLogger()
		createSuperuser(cfg, *emailFlag, *passwordFlag)
	default:
		fmt.Println("Usage: timer-service -command <start|migrate|create-migration|create-superuser> [... other options]")
		os.Exit(1)
	}
}

func createSuperuser(cfg *config.Config, email, password string) {
	if len(password) < models.MinPasswordLength {
		logger.Error("Superuser password is too short", zap.Int("min_length", models.MinPasswordLength))
		os.Exit(1)
	}
	if len(password) > models.MaxPasswordBytes {
		logger.Error("Superuser password is too long", zap.Int("max_bytes", models.MaxPasswordBytes))
		os.Exit(1)
	}

	dbConn := database.InitializeDatabase(cfg.Database)
	defer dbConn.Close()
	c := cache.InitializeCache(cfg.Cache)
	defer c.Close()

	users := services.NewUserService(dbConn, cache.New(c, cfg.Cache.TTL), nil)
	u, err := users.CreateSuperuser(context.Background(), email, password)
	if err != nil {
		logger.Error("Failed to create superuser", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("Superuser created", zap.Int64("user_id", u.ID), zap.String("email", u.Email))
}
