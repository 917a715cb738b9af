package main

import (
	"context"
	"log"
	"strings"

	api "mailtriage-backend/cmd/api"
	authdomain "mailtriage-backend/internal/auth/domain"
	authRepo "mailtriage-backend/internal/auth/repository"
	authUsecase "mailtriage-backend/internal/auth/usecase"
	emaildomain "mailtriage-backend/internal/email/domain"
	emailRepo "mailtriage-backend/internal/email/repository"
	emailUsecase "mailtriage-backend/internal/email/usecase"
	"mailtriage-backend/internal/notification"
	"mailtriage-backend/pkg/ai"
	"mailtriage-backend/pkg/chroma"
	"mailtriage-backend/pkg/config"
	"mailtriage-backend/pkg/crypto"
	"mailtriage-backend/pkg/database"
	"mailtriage-backend/pkg/fcm"
	"mailtriage-backend/pkg/gmail"
	"mailtriage-backend/pkg/imap"
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
		&authdomain.User{},
		&authdomain.RefreshToken{},
		&authdomain.DeviceToken{},
		&emaildomain.Message{},
		&emaildomain.Category{},
		&emaildomain.SenderDigest{},
		&emaildomain.DailyActivity{},
	); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize repositories (dependency injection)
	userRepo := authRepo.NewUserRepository(db)
	deviceRepo := authRepo.NewDeviceTokenRepository(db)
	messageRepo := emailRepo.NewMessageRepository(db)
	categoryRepo := emailRepo.NewCategoryRepository(db)
	senderRepo := emailRepo.NewSenderDigestRepository(db)
	activityRepo := emailRepo.NewDailyActivityRepository(db)
	statsRepo := emailRepo.NewStatsRepository(db)

	// Initialize mail providers
	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)
	imapService := imap.NewService(func(encrypted string) (string, error) {
		return crypto.Decrypt(encrypted, cfg.EncryptionKey)
	})
	providers := map[string]emaildomain.MailProvider{
		"google": gmailService,
		"imap":   imapService,
	}

	// Initialize AI analyzer
	analyzer, err := ai.NewAnalyzer(ai.Config{
		Provider:      ai.ProviderType(cfg.AIProvider),
		GeminiAPIKey:  cfg.GeminiAPIKey,
		OllamaBaseURL: cfg.OllamaBaseURL,
		OllamaModel:   cfg.OllamaModel,
	})
	if err != nil {
		log.Fatal("Failed to initialize AI provider:", err)
	}
	log.Printf("AI analyzer initialized with provider: %s", cfg.AIProvider)

	// Initialize Chroma client for semantic search (optional)
	var index *chroma.Client
	if cfg.ChromaAPIKey != "" {
		index, err = chroma.NewClient(cfg)
		if err != nil {
			log.Printf("[WARN] Failed to initialize Chroma client (semantic search disabled): %v", err)
			index = nil
		}
	} else {
		log.Println("[WARN] CHROMA_API_KEY not set, semantic search disabled")
	}

	// FCM client is optional; without it high-priority pushes and the
	// notification service run without push delivery
	var fcmClient *fcm.Client
	if cfg.FirebaseCredentials != "" {
		fcmClient, err = fcm.NewClient(cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (push notifications disabled): %v", err)
			fcmClient = nil
		}
	}

	// Initialize use cases (dependency injection)
	importUc := emailUsecase.NewImportUsecase(providers, analyzer, userRepo, messageRepo, categoryRepo, senderRepo, activityRepo, index, deviceRepo, fcmClient, cfg)
	messageUc := emailUsecase.NewMessageUsecase(providers, userRepo, messageRepo, activityRepo, index, cfg)
	categoryUc := emailUsecase.NewCategoryUsecase(categoryRepo)
	searchUc := emailUsecase.NewSearchUsecase(messageRepo, analyzer, index)
	statsUc := emailUsecase.NewStatsUsecase(statsRepo, senderRepo, activityRepo)
	authUc := authUsecase.NewAuthUsecase(userRepo, deviceRepo, cfg)

	// Run an initial import in the background after every sign-in that
	// yields mailbox credentials
	authUc.SetSignInCallback(func(userID string) {
		go func() {
			if _, err := importUc.ImportRecent(context.Background(), userID, 20, ""); err != nil {
				log.Printf("[Import] Initial import failed for user %s: %v", userID, err)
			}
		}()
	})

	// Initialize Notification Service (Pub/Sub), only if a project is configured
	if cfg.GoogleProjectID != "" {
		topicName := cfg.GooglePubSubTopic
		if parts := strings.Split(topicName, "/"); len(parts) > 1 {
			topicName = parts[len(parts)-1]
		}
		if topicName == "" {
			topicName = "gmail-updates"
		}

		notifService, err := notification.NewService(cfg.GoogleProjectID, topicName, cfg.GoogleCredentials, userRepo, deviceRepo, fcmClient, importUc)
		if err != nil {
			log.Printf("[ERROR] Failed to initialize notification service: %v", err)
		} else {
			go notifService.Start(context.Background())
		}
	} else {
		log.Println("[WARN] GOOGLE_PROJECT_ID not configured, notification service disabled")
	}

	// Initialize HTTP handler and start server
	handler := api.NewHandler(authUc, importUc, messageUc, categoryUc, searchUc, statsUc, cfg)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := handler.Start(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
