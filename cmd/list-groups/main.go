package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/souta-ok/storesync/internal/config"
	"github.com/souta-ok/storesync/internal/repository/postgres"
)

func main() {
	userFlag := flag.String("user", "", "User ID whose groups to list")
	flag.Parse()

	if *userFlag == "" {
		fmt.Println("Usage:")
		fmt.Println("  go run cmd/list-groups/main.go --user \"<user-uuid>\"")
		os.Exit(1)
	}
	userID, err := uuid.Parse(*userFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid user ID: %v\n", err)
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
	groups, err := repos.Group.ListByUser(context.Background(), userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list groups: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d groups for user %s\n", len(groups), userID)
	for _, g := range groups {
		syncing := "idle"
		if g.IsSyncing {
			syncing = "syncing"
		}
		fmt.Printf("  %s  %-20s  parent=%s  children=%d  type=%s  %s\n",
			g.ID, g.Name, g.ParentStore.Domain, len(g.ChildStores), g.SyncType, syncing)
	}
}
