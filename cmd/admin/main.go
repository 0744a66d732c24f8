package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lms/internal/config"
	"lms/internal/logger"
	"lms/internal/model"
	"lms/internal/repository"
	"lms/internal/service"
	"lms/internal/throttle"

	"github.com/joho/godotenv"
)

const usage = `usage:
  admin migrate <up|down|status|version|redo|reset>
  admin adduser -email EMAIL -password PASSWORD -first NAME -last NAME [-role admin|teacher|student]`

// operator is the actor used for accounts created from the command line.
var operator = &model.User{ID: "cli", Role: model.RoleAdmin}

func main() {
	logger := logger.New()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}
	cfg, err := config.LoadDatabase()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := repository.Open(ctx, cfg.DBConnectionString, cfg.Environment == "development")
	if err != nil {
		logger.Fatal().Msgf("%v", err)
	}
	defer db.Close()

	switch os.Args[1] {
	case "migrate":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		if err := repository.Migrate(ctx, db, os.Args[2], os.Args[3:]...); err != nil {
			logger.Fatal().Msgf("%v", err)
		}
		logger.Info().Str("command", os.Args[2]).Msg("Migration finished")

	case "adduser":
		fs := flag.NewFlagSet("adduser", flag.ExitOnError)
		email := fs.String("email", "", "account email")
		password := fs.String("password", "", "account password (min 8 characters)")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		role := fs.String("role", model.RoleAdmin, "account role")
		fs.Parse(os.Args[2:])

		if *email == "" || *password == "" || *first == "" || *last == "" {
			fs.Usage()
			os.Exit(2)
		}
		// Token settings are irrelevant here; the service is only used to register.
		users := service.NewUserService(repository.NewUserRepo(db), throttle.Noop(), "", time.Hour, logger)
		u, err := users.Register(ctx, operator, service.RegisterInput{
			Email:     *email,
			Password:  *password,
			FirstName: *first,
			LastName:  *last,
			Role:      *role,
		})
		if err != nil {
			logger.Fatal().Msgf("Failed to create user: %v", err)
		}
		logger.Info().Str("user_id", u.ID).Str("email", u.Email).Str("role", u.Role).Msg("User created")

	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
}
