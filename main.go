package main

import (
	"log"

	api "fieldcrm-backend/cmd/api"
	"fieldcrm-backend/internal/automation/scheduler"
	"fieldcrm-backend/internal/automation/usecase"
	leaddomain "fieldcrm-backend/internal/lead/domain"
	leadRepo "fieldcrm-backend/internal/lead/repository"
	messagedomain "fieldcrm-backend/internal/message/domain"
	messageRepo "fieldcrm-backend/internal/message/repository"
	quotedomain "fieldcrm-backend/internal/quote/domain"
	quoteRepo "fieldcrm-backend/internal/quote/repository"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	settingsRepo "fieldcrm-backend/internal/settings/repository"
	tenantdomain "fieldcrm-backend/internal/tenant/domain"
	tenantRepo "fieldcrm-backend/internal/tenant/repository"
	"fieldcrm-backend/pkg/ai"
	"fieldcrm-backend/pkg/config"
	"fieldcrm-backend/pkg/database"
	"fieldcrm-backend/pkg/gcal"
	"fieldcrm-backend/pkg/gmail"
	"fieldcrm-backend/pkg/imap"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database schemas
	if err := db.AutoMigrate(
		&tenantdomain.Tenant{},
		&leaddomain.Lead{},
		&messagedomain.Message{},
		&settingsdomain.AutomationSettings{},
		&quotedomain.Quote{},
		&quotedomain.QuoteItem{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	tenantRepository := tenantRepo.NewGormTenantRepository(db)
	leadRepository := leadRepo.NewGormLeadRepository(db)
	messageRepository := messageRepo.NewGormMessageRepository(db)
	settingsRepository := settingsRepo.NewGormSettingsRepository(db)
	quoteRepository := quoteRepo.NewGormQuoteRepository(db)

	// Initialize mail transports. Refreshed OAuth tokens are persisted
	// back to the owning tenant.
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret, func(address string, token *oauth2.Token) error {
		return tenantRepository.UpdateTokensByAddress(address, token.AccessToken, token.RefreshToken)
	})
	imapService := imap.NewService()
	transports := usecase.NewTransportSelector(gmailService, imapService)

	// Initialize calendar and AI providers
	calendarService := gcal.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	aiProvider, err := ai.NewProvider(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}

	// Initialize the automation engine and its schedulers
	engine := usecase.NewAutomationUsecase(
		tenantRepository,
		leadRepository,
		messageRepository,
		settingsRepository,
		quoteRepository,
		transports,
		aiProvider,
		calendarService,
	)
	sched := scheduler.NewScheduler(engine, cfg.PollInterval, cfg.SweepInterval)
	sched.Start()
	defer sched.Stop()

	// Initialize HTTP handler
	handler := api.NewHandler(engine, tenantRepository, leadRepository, messageRepository, quoteRepository, settingsRepository)

	r := gin.Default()
	api.SetupRoutes(r, handler, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
