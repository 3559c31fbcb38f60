package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/config"
	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/email"
	"github.com/contactbook/contactbook-go/internal/handler"
	"github.com/contactbook/contactbook-go/internal/media"
	"github.com/contactbook/contactbook-go/internal/middleware"
	"github.com/contactbook/contactbook-go/internal/repository"
	"github.com/contactbook/contactbook-go/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(cfg.DatabaseDSN)
	if err != nil {
		slog.Error("connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Redis is an optimization; run uncached when it is unreachable.
	var userCache *cache.UserCache
	if rdb, err := cache.Connect(cfg.RedisAddr, cfg.RedisPassword); err != nil {
		slog.Warn("redis connection failed — running without user cache", "error", err)
	} else {
		userCache = cache.NewUserCache(rdb)
		defer rdb.Close()
	}

	tokens := crypto.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.VerifyTokenTTL)

	var sender email.Sender = email.NewLogSender()
	if cfg.MailgunAPIKey != "" && cfg.MailgunDomain != "" {
		sender = email.NewMailgunSender(&http.Client{Timeout: 10 * time.Second}, cfg.MailgunDomain, cfg.MailgunAPIKey)
	} else {
		slog.Warn("mailgun not configured — verification emails will be logged only")
	}
	mailer := email.NewService(sender, cfg.EmailFrom, cfg.BaseURL)

	if cfg.CloudinaryCloudName == "" {
		slog.Warn("cloudinary not configured — avatar uploads will fail")
	}
	uploader := media.NewCloudinaryUploader(
		&http.Client{Timeout: 30 * time.Second},
		cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret,
	)

	userRepo := repository.NewUserRepository(db)
	contactRepo := repository.NewContactRepository(db)

	authService := service.NewAuthService(userRepo, tokens, mailer, userCache)
	userService := service.NewUserService(userRepo, uploader, userCache)
	contactService := service.NewContactService(contactRepo)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	contactHandler := handler.NewContactHandler(contactService)

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(5, 10))
		r.Post("/api/auth/signup", authHandler.HandleSignup)
		r.Post("/api/auth/login", authHandler.HandleLogin)
		r.Get("/api/auth/refresh_token", authHandler.HandleRefresh)
		r.Get("/api/auth/confirm_email/{token}", authHandler.HandleConfirmEmail)
		r.Post("/api/auth/request_email", authHandler.HandleRequestEmail)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuth(tokens))
		r.Use(middleware.RateLimit(10, 20))

		r.Post("/api/auth/logout", authHandler.HandleLogout)

		r.Get("/api/users/me", userHandler.HandleMe)
		r.Patch("/api/users/avatar", userHandler.HandleUpdateAvatar)

		r.Get("/api/contacts", contactHandler.HandleList)
		r.Post("/api/contacts", contactHandler.HandleCreate)
		r.Get("/api/contacts/birthdays", contactHandler.HandleUpcomingBirthdays)
		r.Get("/api/contacts/search/{query}", contactHandler.HandleSearch)
		r.Get("/api/contacts/{contact_id}", contactHandler.HandleGet)
		r.Put("/api/contacts/{contact_id}", contactHandler.HandleUpdate)
		r.Delete("/api/contacts/{contact_id}", contactHandler.HandleDelete)
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}
