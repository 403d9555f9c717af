package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"doc-compliance-checker/internal/config"
	"doc-compliance-checker/internal/services"
)

func main() {
	user := flag.String("user", "", "user the token is issued to")
	email := flag.String("email", "", "optional email claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *user == "" {
		fmt.Println("Usage: go run cmd/issue-token/main.go -user <name> [-email <address>] [-ttl 24h]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Auth.JWTSecret == "" {
		log.Fatalf("JWT_SECRET is not set; the API is running without authentication")
	}

	token, err := services.NewJWTService(cfg.Auth.JWTSecret).GenerateToken(*user, *email, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
