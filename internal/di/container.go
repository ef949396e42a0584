package di

import (
	"errors"

	"go.uber.org/zap"

	"github.com/stayline-supplies/api/internal/platform/config"
	pfirestore "github.com/stayline-supplies/api/internal/platform/firestore"
	"github.com/stayline-supplies/api/internal/platform/jobs"
	"github.com/stayline-supplies/api/internal/platform/mail"
	"github.com/stayline-supplies/api/internal/repositories"
	firestoreRepo "github.com/stayline-supplies/api/internal/repositories/firestore"
	"github.com/stayline-supplies/api/internal/services"
)

// Dependencies carries the externally constructed infrastructure the
// container wires together. Media, Mailer, and Publisher are optional; the
// features backed by them degrade to no-ops when absent.
type Dependencies struct {
	Config    config.Config
	Logger    *zap.Logger
	Firestore *pfirestore.Provider
	Media     services.MediaStorage
	Mailer    mail.Sender
	Publisher jobs.EnquiryPublisher
}

// Services bundles the service-layer contracts handlers rely on.
type Services struct {
	Catalog   services.CatalogService
	Enquiries services.EnquiryService
	Assets    services.AssetService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config    config.Config
	Catalog   repositories.CatalogRepository
	Enquiries repositories.EnquiryRepository
	Services  Services
}

// NewContainer assembles the runtime dependency graph.
func NewContainer(deps Dependencies) (*Container, error) {
	if deps.Firestore == nil {
		return nil, errors.New("di: firestore provider is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	catalogRepo, err := firestoreRepo.NewCatalogRepository(deps.Firestore, logger.Named("catalog-repo"))
	if err != nil {
		return nil, err
	}
	enquiryRepo, err := firestoreRepo.NewEnquiryRepository(deps.Firestore)
	if err != nil {
		return nil, err
	}

	catalogSvc, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: catalogRepo,
	})
	if err != nil {
		return nil, err
	}

	enquirySvc, err := services.NewEnquiryService(services.EnquiryServiceDeps{
		Enquiries: enquiryRepo,
		Mailer:    deps.Mailer,
		Publisher: deps.Publisher,
		Recipient: deps.Config.Mail.EnquiryInbox,
		Logger:    logger.Named("enquiries"),
	})
	if err != nil {
		return nil, err
	}

	bundle := Services{
		Catalog:   catalogSvc,
		Enquiries: enquirySvc,
	}

	if deps.Media != nil {
		assetSvc, err := services.NewAssetService(services.AssetServiceDeps{
			Media:           deps.Media,
			AllowedPrefixes: deps.Config.Storage.AllowedPrefixes,
			MaxBytes:        deps.Config.Storage.MaxUploadBytes,
		})
		if err != nil {
			return nil, err
		}
		bundle.Assets = assetSvc
	}

	return &Container{
		Config:    deps.Config,
		Catalog:   catalogRepo,
		Enquiries: enquiryRepo,
		Services:  bundle,
	}, nil
}
