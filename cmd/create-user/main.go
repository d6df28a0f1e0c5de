package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/config"
	"github.com/souta-ok/storesync/internal/repository/postgres"
	"github.com/souta-ok/storesync/internal/service"
)

func main() {
	emailFlag := flag.String("email", "", "User email")
	passwordFlag := flag.String("password", "", "User password (min 8 characters)")
	nameFlag := flag.String("name", "", "Display name (optional)")
	flag.Parse()

	if *emailFlag == "" || *passwordFlag == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/create-user/main.go --email \"user@example.com\" --password \"secret-password\" [--name \"Display Name\"]")
		os.Exit(1)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	repos := postgres.NewRepositories(db, logger)
	users := service.NewUserService(repos, cfg.Auth.BcryptCost, logger)

	user, err := users.CreateUserWithPassword(context.Background(), *emailFlag, *passwordFlag, *nameFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create user: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("User created:\n  ID:    %s\n  Email: %s\n", user.ID, user.Email)
}
