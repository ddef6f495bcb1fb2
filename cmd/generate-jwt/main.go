package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"crowdmint-backend/internal/config"
	"crowdmint-backend/internal/db"
	"crowdmint-backend/internal/dto"
	"crowdmint-backend/internal/handlers"
	"crowdmint-backend/internal/repository"
	"crowdmint-backend/internal/utils"

	"github.com/joho/godotenv"
)

// Issues a bearer token for a wallet, creating the user or worker row on
// first use. Development helper; production tokens come from the sign-in flow.
func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	address := flag.String("address", "", "base58 wallet address")
	role := flag.String("role", dto.RoleWorker, "user or worker")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	if !utils.IsSolanaAddress(*address) {
		log.Fatalf("invalid wallet address %q", *address)
	}
	if *role != dto.RoleUser && *role != dto.RoleWorker {
		log.Fatalf("role must be %q or %q", dto.RoleUser, dto.RoleWorker)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatal("auth jwtSecret is not configured")
	}

	gdb, err := db.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	ctx := context.Background()
	var subjectID string
	if *role == dto.RoleUser {
		user, err := repository.NewUserRepository(gdb).FindOrCreateByAddress(ctx, *address)
		if err != nil {
			log.Fatalf("Failed to load user: %v", err)
		}
		subjectID = user.ID
	} else {
		worker, err := repository.NewWorkerRepository(gdb).FindOrCreateByAddress(ctx, *address)
		if err != nil {
			log.Fatalf("Failed to load worker: %v", err)
		}
		subjectID = worker.ID
	}

	token, err := handlers.GenerateJWTToken([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, subjectID, *role, *ttl)
	if err != nil {
		log.Fatalf("Error generating token: %v", err)
	}

	fmt.Println("============================================================")
	fmt.Println("JWT Token Generated for Testing")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Claims:")
	fmt.Printf("  Role: %s\n", *role)
	fmt.Printf("  Subject: %s\n", subjectID)
	fmt.Printf("  Address: %s\n", *address)
	fmt.Printf("  Expires: %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println()
	fmt.Printf("export JWT_TOKEN='%s'\n", token)
}
