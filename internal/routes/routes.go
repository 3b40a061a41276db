package routes

import (
	"context"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/config"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/handlers"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/middleware"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/repository"
	"github.com/Mohit-kumar-saw/court-kuchery-backend/internal/services"
	chatws "github.com/Mohit-kumar-saw/court-kuchery-backend/internal/websocket"
)

// RegisterRoutes wires repositories, services and handlers onto the app and
// starts the hub and session monitor goroutines. The returned context cancel
// is not exposed; monitor shutdown rides the passed ctx.
func RegisterRoutes(ctx context.Context, app *fiber.App, cfg *config.Config, db *pgxpool.Pool) {
	userRepo := repository.NewUserRepository(db)
	lawyerProfileRepo := repository.NewLawyerProfileRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	chatHub := chatws.NewHub()
	go chatHub.Run()

	walletService := services.NewWalletService(db, walletRepo)
	consultService := services.NewConsultService(
		db,
		sessionRepo,
		walletRepo,
		userRepo,
		lawyerProfileRepo,
		chatHub,
		cfg.CommissionPercent,
		cfg.MinStartBalance,
	)
	chatService := services.NewChatService(db, sessionRepo, messageRepo)
	lawyerService := services.NewLawyerService(lawyerProfileRepo)
	reviewService := services.NewReviewService(db, reviewRepo, sessionRepo, lawyerProfileRepo)

	monitor := services.NewSessionMonitor(
		db,
		sessionRepo,
		walletRepo,
		consultService,
		cfg.MonitorInterval,
		cfg.AcceptTimeout,
	)
	go monitor.Run(ctx)

	authHandler := handlers.NewAuthHandler(db, userRepo, walletRepo, lawyerProfileRepo, cfg.JWTSecret)
	consultHandler := handlers.NewConsultHandler(consultService)
	walletHandler := handlers.NewWalletHandler(walletService)
	chatHandler := handlers.NewChatHandler(chatService, chatHub, cfg.JWTSecret)
	lawyerHandler := handlers.NewLawyerHandler(lawyerService)
	reviewHandler := handlers.NewReviewHandler(reviewService)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Get("/me", middleware.AuthRequired(cfg.JWTSecret), authHandler.Me)

	protected := api.Group("", middleware.AuthRequired(cfg.JWTSecret))

	lawyers := protected.Group("/lawyer")
	lawyers.Get("", lawyerHandler.ListLawyers)
	lawyers.Get("/recommended", lawyerHandler.GetRecommendedLawyers)
	lawyers.Put("/profile", lawyerHandler.UpdateProfile)
	lawyers.Put("/online", lawyerHandler.SetOnline)
	lawyers.Get("/:id", lawyerHandler.GetLawyer)
	lawyers.Get("/:id/reviews", reviewHandler.ListLawyerReviews)

	consult := protected.Group("/consult")
	consult.Post("/start", consultHandler.StartConsult)
	consult.Get("/active", consultHandler.ActiveConsult)
	consult.Get("/history", consultHandler.ListConsults)
	consult.Post("/:id/accept", consultHandler.AcceptConsult)
	consult.Post("/:id/decline", consultHandler.DeclineConsult)
	consult.Post("/:id/end", consultHandler.EndConsult)
	consult.Post("/cancel/:id", consultHandler.CancelConsult)

	wallet := protected.Group("/wallet")
	wallet.Get("/balance", walletHandler.GetBalance)
	wallet.Get("/transactions", walletHandler.ListTransactions)
	wallet.Post("/recharge", walletHandler.Recharge)

	protected.Get("/chat/:sessionId", chatHandler.GetMessages)

	protected.Post("/reviews", reviewHandler.CreateReview)
	protected.Get("/reviews/:id", reviewHandler.ListLawyerReviews)

	api.Use("/ws", chatHandler.WebSocketAuth)
	api.Get("/ws", websocket.New(chatHandler.HandleWebSocket))
}
