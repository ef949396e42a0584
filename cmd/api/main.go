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

	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/stayline-supplies/api/internal/di"
	"github.com/stayline-supplies/api/internal/handlers"
	"github.com/stayline-supplies/api/internal/platform/auth"
	"github.com/stayline-supplies/api/internal/platform/config"
	pfirestore "github.com/stayline-supplies/api/internal/platform/firestore"
	"github.com/stayline-supplies/api/internal/platform/jobs"
	"github.com/stayline-supplies/api/internal/platform/mail"
	"github.com/stayline-supplies/api/internal/platform/observability"
	"github.com/stayline-supplies/api/internal/platform/secrets"
	platformstorage "github.com/stayline-supplies/api/internal/platform/storage"
)

const shutdownTimeout = 20 * time.Second

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = baseLogger.Sync() }()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := secrets.New(ctx,
		secrets.WithDefaultProject(defaultProjectFromEnv()),
		secrets.WithLogger(logger.Named("secrets")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)))
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}

	media, closeStorage, err := buildMediaStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise media storage", zap.Error(err))
	}
	if closeStorage != nil {
		defer closeStorage()
	}

	mailer := buildMailer(cfg, logger)

	publisher, closePubSub, err := buildPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialise enquiry publisher", zap.Error(err))
	}
	if closePubSub != nil {
		defer closePubSub()
	}

	deps := di.Dependencies{
		Config:    cfg,
		Logger:    logger,
		Firestore: firestoreProvider,
		Mailer:    mailer,
		Publisher: publisher,
	}
	if media != nil {
		deps.Media = media
	}
	container, err := di.NewContainer(deps)
	if err != nil {
		logger.Fatal("failed to assemble dependency container", zap.Error(err))
	}

	authenticator, err := auth.NewTokenAuthenticator(cfg.Auth.AdminToken)
	if err != nil {
		logger.Fatal("failed to initialise admin authenticator", zap.Error(err))
	}

	router, err := buildRouter(cfg, logger, container, authenticator, firestoreProvider)
	if err != nil {
		logger.Fatal("failed to assemble router", zap.Error(err))
	}

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		logger.Fatal("server error", zap.Error(err))
	case sig := <-shutdown:
		logger.Info("shutdown requested", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown incomplete", zap.Error(err))
		_ = server.Close()
	}
}

func buildRouter(cfg config.Config, logger *zap.Logger, container *di.Container, authenticator *auth.TokenAuthenticator, provider *pfirestore.Provider) (chi.Router, error) {
	storefront, err := handlers.NewStorefrontHandlers(container.Services.Catalog)
	if err != nil {
		return nil, err
	}
	enquiries, err := handlers.NewEnquiryHandlers(container.Services.Enquiries)
	if err != nil {
		return nil, err
	}
	admin, err := handlers.NewAdminHandlers(container.Services.Catalog,
		handlers.WithAdminEnquiryService(container.Services.Enquiries),
	)
	if err != nil {
		return nil, err
	}

	adminRoutes := admin.Routes
	if container.Services.Assets != nil {
		assets, err := handlers.NewAssetHandlers(container.Services.Assets,
			handlers.WithMaxUploadBytes(cfg.Storage.MaxUploadBytes),
		)
		if err != nil {
			return nil, err
		}
		adminRoutes = func(r chi.Router) {
			admin.Routes(r)
			assets.Routes(r)
		}
	}

	health := handlers.NewHealthHandlers(
		handlers.WithReadinessCheck("firestore", func(ctx context.Context) error {
			_, err := provider.Client(ctx)
			return err
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger),
			observability.TraceMiddleware(cfg.Firestore.ProjectID),
			observability.RequestLogMiddleware(),
			observability.RecoverMiddleware(),
		),
		handlers.WithHealthHandlers(health),
		handlers.WithStorefrontRoutes(storefront.Routes),
		handlers.WithEnquiryRoutes(enquiries.Routes),
		handlers.WithAdminRoutes(adminRoutes, authenticator.RequireAdmin()),
	)
	return router, nil
}

// buildMediaStore wires the upload pipeline when a bucket and signer key are
// configured. Without them the asset endpoints are simply not mounted.
func buildMediaStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (*platformstorage.MediaStore, func(), error) {
	if strings.TrimSpace(cfg.Storage.MediaBucket) == "" {
		logger.Info("media bucket not configured; asset uploads disabled")
		return nil, nil, nil
	}
	if strings.TrimSpace(cfg.Storage.SignerKey) == "" {
		return nil, nil, errors.New("STORAGE_SIGNER_KEY is required when a media bucket is configured")
	}

	var signer *platformstorage.ServiceAccountSigner
	var err error
	if strings.HasPrefix(strings.TrimSpace(cfg.Storage.SignerKey), "{") {
		signer, err = platformstorage.NewServiceAccountSignerFromJSON([]byte(cfg.Storage.SignerKey))
	} else {
		signer, err = platformstorage.NewServiceAccountSignerFromFile(cfg.Storage.SignerKey)
	}
	if err != nil {
		return nil, nil, err
	}

	client, err := cloudstorage.NewClient(ctx)
	if err != nil {
		return nil, nil, err
	}
	media, err := platformstorage.NewMediaStore(client, signer, cfg.Storage.MediaBucket,
		platformstorage.WithReadTTL(cfg.Storage.ReadURLTTL),
	)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closeClient := func() {
		if err := client.Close(); err != nil {
			logger.Warn("storage client close error", zap.Error(err))
		}
	}
	return media, closeClient, nil
}

func buildMailer(cfg config.Config, logger *zap.Logger) mail.Sender {
	if strings.TrimSpace(cfg.Mail.SendGridAPIKey) == "" || strings.TrimSpace(cfg.Mail.EnquiryInbox) == "" {
		logger.Info("mailer not configured; enquiry forwarding disabled")
		return nil
	}
	sender, err := mail.NewSendGridSender(cfg.Mail.SendGridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress)
	if err != nil {
		logger.Warn("mailer misconfigured; enquiry forwarding disabled", zap.Error(err))
		return nil
	}
	return sender
}

func buildPublisher(ctx context.Context, cfg config.Config, logger *zap.Logger) (jobs.EnquiryPublisher, func(), error) {
	topicName := strings.TrimSpace(cfg.Jobs.EnquiryTopic)
	if topicName == "" {
		logger.Info("enquiry topic not configured; event publishing disabled")
		return nil, nil, nil
	}

	client, err := pubsub.NewClient(ctx, cfg.Firestore.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	topic := client.Topic(topicName)
	publisher, err := jobs.NewPubSubEnquiryPublisher(topic)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closeClient := func() {
		topic.Stop()
		if err := client.Close(); err != nil {
			logger.Warn("pubsub client close error", zap.Error(err))
		}
	}
	return publisher, closeClient, nil
}

func defaultProjectFromEnv() string {
	if project := strings.TrimSpace(os.Getenv("FIRESTORE_PROJECT_ID")); project != "" {
		return project
	}
	return strings.TrimSpace(os.Getenv("GOOGLE_CLOUD_PROJECT"))
}
