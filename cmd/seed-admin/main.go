package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"loan-portal/internal/auth"
	"loan-portal/internal/config"
	"loan-portal/internal/repository/sqlite"
	"loan-portal/internal/service"
)

// seed-admin creates the administrator account, or promotes an existing account
// with the configured email. The password is never printed.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	email := flag.String("email", cfg.Admin.Email, "admin account email")
	password := flag.String("password", cfg.Admin.Password, "admin password, used only when the account is created")
	flag.Parse()

	if *email == "" {
		logger.Fatal("admin email is required (ADMIN_EMAIL or -email)")
	}

	db, err := sqlite.OpenAndMigrate(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	hasher, err := auth.NewPasswordHasher(cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatalf("password hasher: %v", err)
	}
	users, err := service.NewUserService(sqlite.NewUserRepository(db), hasher)
	if err != nil {
		logger.Fatalf("user service: %v", err)
	}

	admin, created, err := users.EnsureAdmin(context.Background(), *email, *password)
	if err != nil {
		logger.Errorf("seed admin: %v", err)
		db.Close()
		os.Exit(1)
	}

	if created {
		fmt.Printf("created admin account %s\n", admin.Email)
		return
	}
	fmt.Printf("admin account %s is ready\n", admin.Email)
}
