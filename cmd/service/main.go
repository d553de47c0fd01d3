package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"gitlab.com/dirk.krummacker/phonebook/internal/audit"
	"gitlab.com/dirk.krummacker/phonebook/internal/config"
	"gitlab.com/dirk.krummacker/phonebook/internal/logger"
	"gitlab.com/dirk.krummacker/phonebook/internal/phonebook"
	"gitlab.com/dirk.krummacker/phonebook/internal/service"
)

// Usage example on the command line:
// > PORT=8080 AUDIT_LOG_PATH=audit_log.txt GIN_MODE=release GIN_LOGGING=off go run main.go
func main() {
	_ = godotenv.Load()
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}
	log := logger.New(cfg.LogLevel)

	book := phonebook.New(audit.NewFileSink(cfg.AuditLogPath))
	router := service.SetupHttpRouter(book)

	log.Info().
		Int("port", cfg.Port).
		Str("audit_log", cfg.AuditLogPath).
		Msg("starting phonebook service")
	if err := router.Run(fmt.Sprintf(":%d", cfg.Port)); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
