// Command devbackend runs the reference console backend.
//
//go:generate swag init -d ../../internal/backend/http,../../pkg/authsdk -g router.go -o ../../api/backend --outputTypes go
package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/modconsole/internal/backend/app"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	_ = godotenv.Load()

	cfg := app.LoadConfig()

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("application error: %v", err)
	}
}
