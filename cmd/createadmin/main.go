// Command createadmin seeds the first Super Admin account. Running it again is a no-op.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/diagnosis/vms/internal/domain"
	"github.com/diagnosis/vms/internal/platform/password"
	"github.com/diagnosis/vms/internal/repository"
	"github.com/diagnosis/vms/internal/service"
	"github.com/diagnosis/vms/pkg/config"
	"github.com/diagnosis/vms/pkg/database"
	"github.com/diagnosis/vms/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	req := domain.CreateAdminRequest{}
	flag.StringVar(&req.Username, "username", "admin", "login username")
	flag.StringVar(&req.Email, "email", "admin@gmail.com", "login email")
	flag.StringVar(&req.Password, "password", "", "initial password, falls back to $ADMIN_PASSWORD")
	flag.StringVar(&req.FirstName, "first-name", "Default", "first name")
	flag.StringVar(&req.LastName, "last-name", "Admin", "last name")
	flag.StringVar(&req.Department, "department", "Management", "department")
	migrate := flag.Bool("migrate", cfg.Database.AutoMigrate, "apply pending migrations first")
	flag.Parse()

	if req.Password == "" {
		req.Password = os.Getenv("ADMIN_PASSWORD")
	}
	if req.Password == "" {
		logger.Error("A password is required: pass -password or set ADMIN_PASSWORD")
		os.Exit(2)
	}

	if *migrate {
		if err := database.Migrate(cfg.Database.URL); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	admins := service.NewAdminService(repository.NewAdminRepository(pool), password.New(cfg.Auth.BcryptCost))
	admin, err := admins.Bootstrap(ctx, &req)
	switch {
	case errors.Is(err, domain.ErrConflict):
		logger.Info("Admin already exists", "email", req.Email)
	case err != nil:
		logger.Error("Failed to create admin", "error", err)
		pool.Close()
		os.Exit(1)
	default:
		logger.Info("Admin created", "admin_id", admin.ID, "email", admin.Email, "role", admin.Role)
	}
}
