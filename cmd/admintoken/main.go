package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/ikkim/storefront-backend/pkg/util"
)

// Prints a bearer token accepted by the admin-only catalog routes.
func main() {
	subject := flag.String("subject", "admin", "token subject")
	expiry := flag.Duration("expiry", 0, "token lifetime (defaults to ADMIN_TOKEN_EXPIRY)")
	flag.Parse()

	logger.Initialize(logger.Config{Level: "warn", Format: "console", Output: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}
	if cfg.Admin.JWTSecret == "" {
		fmt.Fprintln(os.Stderr, "ADMIN_JWT_SECRET is not set; the admin guard is disabled")
		os.Exit(1)
	}

	ttl := cfg.Admin.TokenExpiry
	if *expiry > 0 {
		ttl = *expiry
	}

	token, err := util.GenerateAdminToken(*subject, cfg.Admin.JWTSecret, ttl)
	if err != nil {
		logger.Fatal("Failed to sign admin token", err)
	}

	fmt.Println(token)
}
