package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/klevisbr/bookstore-api/internal/auth"
	"github.com/klevisbr/bookstore-api/internal/catalog"
	"github.com/klevisbr/bookstore-api/internal/config"
	"github.com/klevisbr/bookstore-api/internal/middleware"
	"github.com/klevisbr/bookstore-api/internal/models"
	"github.com/klevisbr/bookstore-api/internal/orders"
	"github.com/klevisbr/bookstore-api/internal/store"
	"github.com/klevisbr/bookstore-api/internal/users"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.JWTAccessSecret == "" || cfg.JWTRefreshSecret == "" {
		log.Fatal("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must be set")
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	if err := mongoClient.Ping(ctx, readpref.Primary()); err != nil {
		log.Fatalf("mongo ping: %v", err)
	}
	db := mongoClient.Database(cfg.MongoDB)

	userStore := store.NewUserStore(db)
	if err := userStore.EnsureIndexes(ctx); err != nil {
		log.Fatalf("mongo indexes: %v", err)
	}
	bookStore := store.NewBookStore(db)
	categoryStore := store.NewCategoryStore(db)
	orderStore := store.NewOrderStore(db)

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer rdb.Close()
	refreshStore := auth.NewRedisRefreshStore(rdb)

	// ── MinIO ────────────────────────────────────────────────
	coverStore, err := store.NewCoverStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	tokens := auth.NewTokenService(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	authHandler := auth.NewHandler(userStore, tokens, refreshStore, cfg.CookieSecure)
	catalogHandler := catalog.NewHandler(bookStore, categoryStore, coverStore)
	orderHandler := orders.NewHandler(orderStore, bookStore)
	userHandler := users.NewHandler(userStore)

	requireAuth := middleware.RequireAuth(tokens)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	anyUser := middleware.RequireRole(models.RoleUser, models.RoleAdmin)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh)
		r.Post("/logout", authHandler.Logout)
	})

	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", catalogHandler.ListBooks)
		r.Get("/{id}", catalogHandler.GetBook)
		r.Get("/{id}/cover", catalogHandler.GetCover)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Post("/", catalogHandler.CreateBook)
			r.Put("/{id}", catalogHandler.UpdateBook)
			r.Put("/{id}/cover", catalogHandler.UploadCover)
			r.Delete("/{id}", catalogHandler.DeleteBook)
		})
	})

	r.Route("/api/categories", func(r chi.Router) {
		r.Get("/", catalogHandler.ListCategories)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Post("/", catalogHandler.CreateCategory)
			r.Put("/{id}", catalogHandler.UpdateCategory)
			r.Delete("/{id}", catalogHandler.DeleteCategory)
		})
	})

	r.Route("/api/orders", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, anyUser)
			r.Post("/", orderHandler.Create)
			r.Get("/my", orderHandler.ListMine)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth, adminOnly)
			r.Get("/", orderHandler.List)
			r.Get("/{id}", orderHandler.Get)
			r.Put("/{id}/status", orderHandler.UpdateStatus)
			r.Delete("/{id}", orderHandler.Delete)
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(requireAuth, adminOnly)
		r.Get("/", userHandler.List)
		r.Get("/{id}", userHandler.Get)
		r.Put("/{id}", userHandler.Update)
		r.Delete("/{id}", userHandler.Delete)
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("Bookstore API listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
