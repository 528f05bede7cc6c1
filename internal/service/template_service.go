package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-reportcard-api/internal/dto"
	"github.com/noah-isme/sma-reportcard-api/internal/models"
	appErrors "github.com/noah-isme/sma-reportcard-api/pkg/errors"
)

type templateStore interface {
	GetTemplate(ctx context.Context, schoolID string) (*models.StoredTemplate, error)
	UpsertTemplate(ctx context.Context, tpl *models.StoredTemplate) error
}

// TemplateService manages each school's report card template.
type TemplateService struct {
	store     templateStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTemplateService constructs the service.
func NewTemplateService(store templateStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TemplateService{store: store, cache: cache, validator: validate, logger: logger}
}

// Get returns the stored template, or an empty config when the school has none.
func (s *TemplateService) Get(ctx context.Context, caps models.Capabilities, schoolID string) (*dto.TemplateResponse, error) {
	if err := s.authorize(caps, schoolID); err != nil {
		return nil, err
	}
	stored, err := s.store.GetTemplate(ctx, schoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &dto.TemplateResponse{SchoolID: schoolID}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report card template")
	}
	return &dto.TemplateResponse{SchoolID: schoolID, Config: stored.Config, Stored: true}, nil
}

// Update validates and stores the template, then drops the school's cached cards.
func (s *TemplateService) Update(ctx context.Context, caps models.Capabilities, schoolID string, cfg models.ReportCardTemplateConfig) (*dto.TemplateResponse, error) {
	if err := s.authorize(caps, schoolID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid template config")
	}

	tpl := &models.StoredTemplate{
		SchoolID:  schoolID,
		Config:    cfg,
		UpdatedBy: caps.ActorID,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.store.UpsertTemplate(ctx, tpl); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save report card template")
	}
	if err := s.cache.Invalidate(ctx, SchoolPattern(schoolID)); err != nil {
		s.logger.Warn("stale report cards may be served until cache expiry", zap.String("school_id", schoolID), zap.Error(err))
	}
	s.logger.Info("report card template updated", zap.String("school_id", schoolID), zap.String("actor_id", caps.ActorID))
	return &dto.TemplateResponse{SchoolID: schoolID, Config: cfg, Stored: true}, nil
}

func (s *TemplateService) authorize(caps models.Capabilities, schoolID string) error {
	if !caps.ManageTemplates {
		return appErrors.ErrForbidden
	}
	if !caps.SameSchool(schoolID) {
		return appErrors.Clone(appErrors.ErrForbidden, "school belongs to another tenant")
	}
	return nil
}
