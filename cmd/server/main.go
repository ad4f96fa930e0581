package main

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/slotwise/slotwise/internal/agents"
	"github.com/slotwise/slotwise/internal/db"
	"github.com/slotwise/slotwise/internal/handlers"
	"github.com/slotwise/slotwise/internal/logger"
	"github.com/slotwise/slotwise/internal/models"
	"github.com/slotwise/slotwise/internal/repositories"
	"github.com/slotwise/slotwise/internal/services"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	zlog, err := logger.New()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer zlog.Sync()

	config := db.NewConfig()
	database, err := db.Connect(config)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Health(); err != nil {
		zlog.Fatal("Database health check failed", zap.Error(err))
	}
	zlog.Info("Database connection established")

	if err := database.AutoMigrate(
		&models.ActionCard{},
		&models.AgentConfig{},
		&models.AgentRun{},
		&models.AgentFeedback{},
		&models.DuplicateCandidate{},
	); err != nil {
		zlog.Fatal("Migration failed", zap.Error(err))
	}

	// Repositories
	cardRepo := repositories.NewActionCardRepository(database)
	configRepo := repositories.NewAgentConfigRepository(database)
	runRepo := repositories.NewAgentRunRepository(database)
	feedbackRepo := repositories.NewAgentFeedbackRepository(database)
	dupRepo := repositories.NewDuplicateCandidateRepository(database)
	tenantRepo := repositories.NewTenantRepository(database)
	customerRepo := repositories.NewCustomerRepository(database)
	bookingRepo := repositories.NewBookingRepository(database)
	scheduleRepo := repositories.NewScheduleRepository(database)
	waitlistRepo := repositories.NewWaitlistRepository(database)
	quoteRepo := repositories.NewQuoteRepository(database)
	conversationRepo := repositories.NewConversationRepository(database)

	// Services
	notifier := services.NewLogNotifier(zlog)
	audit := services.NewLogAuditService(zlog)
	cardService := services.NewActionCardService(cardRepo, notifier, audit, zlog)
	availability := services.NewAvailabilityService(scheduleRepo, bookingRepo)

	// Agent registry, populated explicitly at startup.
	registry := agents.NewRegistry()
	registry.Register(agents.NewDuplicateCustomerAgent(customerRepo, dupRepo, cardService, zlog))
	registry.Register(agents.NewRetentionAgent(customerRepo, bookingRepo, cardService, zlog))
	registry.Register(agents.NewScheduleGapAgent(scheduleRepo, availability, cardService, zlog))
	registry.Register(agents.NewWaitlistMatchAgent(waitlistRepo, customerRepo, availability, cardService, zlog))
	registry.Register(agents.NewStalledQuoteAgent(quoteRepo, customerRepo, cardService, zlog))
	zlog.Info("agents registered", zap.Strings("types", registry.List()))

	agentService := services.NewAgentService(registry, configRepo, runRepo, feedbackRepo, cardRepo, zlog)

	// Orchestrators
	scheduler := services.NewSchedulerService(configRepo, runRepo, registry, agentService, zlog)
	opportunities := services.NewOpportunityService(tenantRepo, bookingRepo, conversationRepo, customerRepo, scheduleRepo, availability, cardService, zlog)
	housekeeping := services.NewHousekeeping(cardService, zlog)

	if err := scheduler.Start(); err != nil {
		zlog.Fatal("Failed to start scheduler", zap.Error(err))
	}
	defer scheduler.Stop()
	if err := opportunities.Start(); err != nil {
		zlog.Fatal("Failed to start opportunity detector", zap.Error(err))
	}
	defer opportunities.Stop()
	if err := housekeeping.Start(); err != nil {
		zlog.Fatal("Failed to start housekeeping", zap.Error(err))
	}
	defer housekeeping.Stop()

	// HTTP server
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"slotwise-engine"}`))
	})

	api := router.PathPrefix("/api").Subrouter()
	api.Use(handlers.TenantMiddleware)
	handlers.NewActionCardHandler(cardService).Register(api)
	handlers.NewAgentHandler(agentService).Register(api)

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	zlog.Info("Server starting", zap.String("port", port))
	if err := http.ListenAndServe(":"+port, handlers.CORSMiddleware(router)); err != nil {
		zlog.Fatal("Server failed", zap.Error(err))
	}
}
