package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api"
	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/handler"
	apimiddleware "github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/middleware"
	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/router"
	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/repository"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/firebase"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/linkpreview"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/ratelimit"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/storage"
	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/websocket"
	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:   cfg.FirebaseProject,
		DatabaseURL: cfg.DatabaseURL,
	}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	dbClient, err := firebaseApp.Database(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Realtime Database: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	messageStore := repository.NewRTDBMessageStore(dbClient, cfg.PollInterval)
	convRepo := repository.NewRTDBConversationRepository(dbClient, cfg.PollInterval)
	groupRepo := repository.NewRTDBGroupRepository(dbClient)
	presenceStore := repository.NewRTDBPresenceStore(dbClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	firebaseAuth := firebase.NewAuthClient(authClient)
	previewProvider := linkpreview.NewProvider(5 * time.Second)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	sessionCfg := usecase.SessionConfig{
		MaxMessagesPerLoad:    cfg.MaxMessagesPerLoad,
		UserCacheTTL:          cfg.UserCacheTTL,
		GroupMessagingEnabled: cfg.GroupMessagingEnabled,
	}
	registry := usecase.NewSessionRegistry(func(user entity.User) *usecase.ChatSession {
		limiter := ratelimit.NewRateLimiter(cfg.MessageQuotaPerMinute, time.Minute)
		return usecase.NewChatSession(
			user,
			messageStore,
			convRepo,
			groupRepo,
			userRepo,
			presenceStore,
			limiter,
			previewProvider,
			sessionCfg,
		)
	})
	defer registry.CloseAll()

	groupUseCase := usecase.NewGroupUseCase(groupRepo, userRepo)
	userUseCase := usecase.NewUserUseCase(userRepo, storageClient)
	authUseCase := usecase.NewAuthUseCase(userRepo, firebaseAuth)

	handler.Setup(registry, groupUseCase, userUseCase)
	handler.SetupAuthHandler(authUseCase)
	handler.SetupHealthHandler(firebaseAuth)

	var devTokens *firebase.DevTokenIssuer
	if cfg.Environment == "development" {
		devTokens = firebase.NewDevTokenIssuer(cfg.DevTokenSecret)
		handler.SetupDevTokenHandler(devTokens)
	}

	e := echo.New()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuth, devTokens)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, registry)

	router.Setup(e, authMiddleware)
	router.SetupWebSocketRouter(e, wsHandler)
	router.SetupDevRouter(e, cfg.Environment)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
