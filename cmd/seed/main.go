// seed creates the initial admin account from ADMIN_EMAIL and ADMIN_PASSWORD.
// Idempotent: exits without changes when a user with that email already exists.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"rocr/backend/internal/config"
	"rocr/backend/internal/db"
	sessionrepo "rocr/backend/internal/session/repository"
	"rocr/backend/internal/security"
	"rocr/backend/internal/user/domain"
	userrepo "rocr/backend/internal/user/repository"
	userservice "rocr/backend/internal/user/service"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Str("cmd", "seed").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config")
	}
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set; create a .env or export DATABASE_URL")
	}
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		logger.Fatal().Msg("ADMIN_EMAIL and ADMIN_PASSWORD must be set")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db")
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	existing, err := users.GetByEmail(ctx, domain.NormalizeEmail(cfg.AdminEmail))
	if err != nil {
		logger.Fatal().Err(err).Msg("seed check")
	}
	if existing != nil {
		logger.Info().Str("email", existing.Email).Msg("admin already exists; nothing to do")
		return
	}

	svc := userservice.NewUserService(users, sessionrepo.NewPostgresRepository(conn),
		security.NewHasherWithAlgo(cfg.PasswordHashAlgo, cfg.BcryptCost))
	admin, err := svc.Create(ctx, userservice.CreateInput{
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Name:     cfg.AdminName,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("create admin")
	}

	logger.Info().Str("id", admin.ID).Str("email", admin.Email).Str("role", admin.Role.String()).Msg("admin created")
	fmt.Println("Change the admin password after the first login.")
}
