package main

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/JimJos-Calderon/app-web-mylist/internal/auth"
	"github.com/JimJos-Calderon/app-web-mylist/internal/handlers"
	"github.com/JimJos-Calderon/app-web-mylist/internal/httpserver"
	"github.com/JimJos-Calderon/app-web-mylist/internal/logger"
	"github.com/JimJos-Calderon/app-web-mylist/internal/omdb"
	"github.com/JimJos-Calderon/app-web-mylist/internal/realtime"
	"github.com/JimJos-Calderon/app-web-mylist/internal/storage"
	"github.com/JimJos-Calderon/app-web-mylist/internal/store"
	"github.com/JimJos-Calderon/app-web-mylist/internal/suggest"
)

type Config struct {
	Port                 string `envconfig:"PORT" default:"8080"`
	DatabaseURL          string `envconfig:"DATABASE_URL" required:"true"`
	AllowedOrigins       string `envconfig:"ALLOWED_ORIGINS"`
	SupabaseJWTPublicKey string `envconfig:"SUPABASE_JWT_PUBLIC_KEY"`
	SupabaseJWKSURL      string `envconfig:"SUPABASE_JWKS_URL"`
	SupabaseJWTAudience  string `envconfig:"SUPABASE_JWT_AUDIENCE" default:"authenticated"`
	SupabaseJWTIssuer    string `envconfig:"SUPABASE_JWT_ISSUER" required:"true"`
	OMDBAPIKey           string `envconfig:"OMDB_API_KEY" required:"true"`
	OMDBBaseURL          string `envconfig:"OMDB_BASE_URL" default:"https://www.omdbapi.com/"`
	RedisAddr            string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword        string `envconfig:"REDIS_PASSWORD"`
	EventsChannel        string `envconfig:"EVENTS_CHANNEL" default:"items:events"`
	MinioEndpoint        string `envconfig:"MINIO_ENDPOINT" default:"localhost:9000"`
	MinioAccessKey       string `envconfig:"MINIO_ACCESS_KEY"`
	MinioSecretKey       string `envconfig:"MINIO_SECRET_KEY"`
	MinioBucket          string `envconfig:"MINIO_BUCKET" default:"avatars"`
	MinioPublicURL       string `envconfig:"MINIO_PUBLIC_URL" default:"http://localhost:9000"`
	MinioUseSSL          bool   `envconfig:"MINIO_USE_SSL" default:"false"`
}

func mustLoadEnv() Config {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		logger.Get().WithError(err).Fatal("env error")
	}
	return c
}

func mustDB(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		logger.Get().WithError(err).Fatal("db connect error")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sqlDB, _ := db.DB()
	if err := sqlDB.PingContext(ctx); err != nil {
		logger.Get().WithError(err).Fatal("db ping error")
	}
	return db
}

func main() {
	logger.Init()
	cfg := mustLoadEnv()
	ctx := context.Background()

	db := mustDB(cfg.DatabaseURL)
	st := store.New(db)
	if err := st.AutoMigrate(); err != nil {
		logger.Get().WithError(err).Fatal("migrate error")
	}

	rdb, err := realtime.NewClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		logger.Get().WithError(err).Fatal("redis connect error")
	}
	bus := realtime.NewBus(rdb, cfg.EventsChannel)

	avatars, err := storage.NewAvatarStore(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioPublicURL, cfg.MinioUseSSL)
	if err != nil {
		logger.Get().WithError(err).Fatal("avatar storage error")
	}

	omdbClient := omdb.New(cfg.OMDBAPIKey, cfg.OMDBBaseURL)
	suggestSvc := suggest.New(omdbClient)

	// Handlers
	itemsHandler := handlers.NewItemsHandler(st, bus)
	ratingsHandler := handlers.NewRatingsHandler(st)
	listsHandler := handlers.NewListsHandler(st)
	profileHandler := handlers.NewProfileHandler(st, avatars)
	suggestHandler := handlers.NewSuggestHandler(suggestSvc, omdbClient)
	eventsHandler := handlers.NewEventsHandler(bus)
	userHandler := handlers.NewUserHandler(st)

	// Auth middleware
	verifier := &auth.Verifier{
		PublicKeyPEMOrJWKS: cfg.SupabaseJWTPublicKey,
		JWKSURL:            cfg.SupabaseJWKSURL,
		Audience:           cfg.SupabaseJWTAudience,
		Issuer:             cfg.SupabaseJWTIssuer,
	}

	mounter := func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(verifier.Middleware)
			r.Get("/me", userHandler.Me)
			r.Route("/items", func(r chi.Router) {
				itemsHandler.Routes(r)
				ratingsHandler.Routes(r)
			})
			r.Route("/lists", listsHandler.Routes)
			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Put)
			r.Post("/profile/avatar", profileHandler.PostAvatar)
			r.Get("/profiles/{username}", profileHandler.GetByUsername)
			r.Get("/suggest", suggestHandler.Suggest)
			r.Get("/posters", suggestHandler.Poster)
			r.Get("/events", eventsHandler.Stream)
		})
	}

	srv := httpserver.NewServer(splitOrigins(cfg.AllowedOrigins), mounter)

	addr := ":" + cfg.Port
	logger.Get().WithField("addr", addr).Info("listening")
	if err := http.ListenAndServe(addr, srv.Router); err != nil {
		logger.Get().WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func splitOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
