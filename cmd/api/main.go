package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	"plantio/internal/adapter/api"
	"plantio/internal/adapter/api/handler"
	apimiddleware "plantio/internal/adapter/api/middleware"
	"plantio/internal/adapter/api/router"
	"plantio/internal/adapter/repository"
	domainrepo "plantio/internal/domain/repository"
	"plantio/internal/infrastructure/eventbus"
	"plantio/internal/infrastructure/firebase"
	"plantio/internal/infrastructure/ratelimit"
	"plantio/internal/infrastructure/websocket"
	"plantio/internal/usecase"
	"plantio/pkg/config"
	"plantio/pkg/logger"
)

// devTokenVerifier treats the bearer token as the user id. Only wired for
// the in-memory backend, which has no Firebase project behind it.
type devTokenVerifier struct{}

func (devTokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	return token, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var (
		chatRepo   domainrepo.ChatRepository
		userRepo   domainrepo.UserRepository
		couponRepo domainrepo.CouponRepository
		verifier   apimiddleware.TokenVerifier
	)

	if cfg.StoreBackend == "memory" {
		logger.Info("Using in-memory store backend")
		chatRepo = repository.NewMemoryChatRepository()
		userRepo = repository.NewMemoryUserRepository()
		couponRepo = repository.NewMemoryCouponRepository()
		verifier = devTokenVerifier{}
	} else {
		var opt option.ClientOption
		if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
			opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
		} else {
			serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
			if serviceAccountPath == "" {
				log.Fatalf("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH is required")
			}
			opt = option.WithCredentialsFile(serviceAccountPath)
		}

		firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase: %v", err)
		}

		authClient, err := firebaseApp.Auth(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Auth: %v", err)
		}

		firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
		if err != nil {
			log.Fatalf("Failed to create Firestore client: %v", err)
		}
		defer firestoreClient.Close()

		chatRepo = repository.NewFirestoreChatRepository(firestoreClient)
		userRepo = repository.NewFirestoreUserRepository(firestoreClient)
		couponRepo = repository.NewFirestoreCouponRepository(firestoreClient)
		verifier = firebase.NewFirebaseAuthClient(authClient)
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	bus := eventbus.New()
	go usecase.NewAdminNotifier(userRepo, wsManager).Run(ctx, bus)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, wsManager, rateLimiter, bus)
	couponUseCase := usecase.NewCouponUseCase(couponRepo)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(verifier)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	chatHandler := handler.NewChatHandler(chatUseCase)
	couponHandler := handler.NewCouponHandler(couponUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware, chatUseCase)
	healthHandler := handler.NewHealthHandler(cfg.StoreBackend)

	router.Setup(e, authMiddleware, adminMiddleware, chatHandler, couponHandler, wsHandler, healthHandler)

	logger.Info("Starting server on port %s (%s backend)", cfg.ServerPort, cfg.StoreBackend)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
