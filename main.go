package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/kcgaragesales/kc-garage-sales/internal/access"
	"github.com/kcgaragesales/kc-garage-sales/internal/admin"
	"github.com/kcgaragesales/kc-garage-sales/internal/captcha"
	"github.com/kcgaragesales/kc-garage-sales/internal/catalog"
	"github.com/kcgaragesales/kc-garage-sales/internal/config"
	"github.com/kcgaragesales/kc-garage-sales/internal/db"
	"github.com/kcgaragesales/kc-garage-sales/internal/geocoding"
	"github.com/kcgaragesales/kc-garage-sales/internal/media"
	"github.com/kcgaragesales/kc-garage-sales/internal/middleware"
	"github.com/kcgaragesales/kc-garage-sales/internal/notify"
	"github.com/kcgaragesales/kc-garage-sales/internal/sales"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read configuration")
	}
	setupLogger(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if err := sales.Init(d); err != nil {
		return err
	}
	if err := access.Init(d); err != nil {
		return err
	}

	geocoder, err := geocoding.New(cfg)
	if err != nil {
		return err
	}
	mailer, err := notify.New(cfg)
	if err != nil {
		return err
	}

	deps := sales.Deps{
		Repo:          sales.NewGormRepository(d),
		Geocoder:      geocoder,
		Mailer:        mailer,
		Catalog:       catalog.Default(),
		MaxPhotos:     cfg.MaxPhotos,
		MaxPhotoBytes: cfg.MaxPhotoBytes,
		Location:      cfg.Location(),
	}
	if cfg.CaptchaEnabled {
		deps.Captcha = captcha.NewTurnstile(cfg.TurnstileVerifyURL, cfg.TurnstileSecret)
	}
	if cfg.PhotoUploadEnabled {
		store, err := media.NewGCS(ctx, cfg.StorageBucket, cfg.StoragePublicBaseURL, cfg.StorageCredentials)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Media = store
	}
	svc := sales.NewService(deps)

	guard := access.NewGuard(cfg.AdminPasswordHash, access.NewGormSessions(d), cfg.AdminSessionTTL)

	log.Info().
		Str("geocoder", geocoder.Name()).
		Str("email", string(cfg.EmailProvider)).
		Bool("captcha", cfg.CaptchaEnabled).
		Bool("photos", cfg.PhotoUploadEnabled).
		Str("timezone", cfg.Location().String()).
		Msg("Listing workflow configured")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORSMiddleware(cfg.AllowOrigins))

	r.Get("/healthz", RootHandler)
	r.Mount("/admin", admin.SetupRoutes(admin.NewHandler(guard, svc, strings.HasPrefix(cfg.PublicAppURL, "https://"))))
	r.Mount("/", sales.SetupRoutes(sales.NewHandler(svc, cfg.MaxPhotos, cfg.MaxPhotoBytes)))

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
