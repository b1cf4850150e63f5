package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nemu-commission-api/internal/domain"
	"nemu-commission-api/internal/dto"
	"nemu-commission-api/internal/form"
	"nemu-commission-api/internal/repository"
	"nemu-commission-api/internal/response"
)

// Render modes
const (
	RenderModeDesigner = "designer"
	RenderModeInput    = "input"
)

// FormService defines the interface for the form designer
type FormService interface {
	CreateForm(ctx context.Context, userID uuid.UUID, req *dto.CreateFormRequest) (*dto.FormResponse, error)
	GetForm(ctx context.Context, formID uuid.UUID) (*dto.FormResponse, error)
	AddField(ctx context.Context, userID, formID uuid.UUID, kind form.Kind) (*dto.FormResponse, error)
	UpdateField(ctx context.Context, userID, formID uuid.UUID, fieldID string, metadata form.Metadata) (*dto.FormResponse, error)
	RemoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string) (*dto.FormResponse, error)
	MoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string, position int) (*dto.FormResponse, error)
	RenderForm(ctx context.Context, formID uuid.UUID, mode string) (*dto.RenderFormResponse, error)
	Palette() []form.PaletteEntry
}

type formServiceImpl struct {
	formRepo   repository.FormRepository
	artistRepo repository.ArtistRepository
	logger     *zap.Logger
}

// NewFormService creates a new instance of FormService
func NewFormService(formRepo repository.FormRepository, artistRepo repository.ArtistRepository, logger *zap.Logger) FormService {
	return &formServiceImpl{formRepo: formRepo, artistRepo: artistRepo, logger: logger}
}

func (s *formServiceImpl) CreateForm(ctx context.Context, userID uuid.UUID, req *dto.CreateFormRequest) (*dto.FormResponse, error) {
	artist, err := s.artistRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewForbiddenError("Only artists can create forms", "")
		}
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load artist", err.Error())
	}

	fields, err := form.Schema{}.Marshal()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode form", err.Error())
	}
	def := &domain.FormDefinition{
		ArtistID:    artist.ID,
		Name:        req.Name,
		Description: req.Description,
		Fields:      fields,
	}
	if err := s.formRepo.Create(ctx, def); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to create form", err.Error())
	}

	s.logger.Info("Form created", zap.String("form_id", def.ID.String()), zap.String("artist_id", artist.ID.String()))
	return toFormResponse(def, form.Schema{}), nil
}

func (s *formServiceImpl) GetForm(ctx context.Context, formID uuid.UUID) (*dto.FormResponse, error) {
	def, schema, err := s.load(ctx, formID)
	if err != nil {
		return nil, err
	}
	return toFormResponse(def, schema), nil
}

func (s *formServiceImpl) AddField(ctx context.Context, userID, formID uuid.UUID, kind form.Kind) (*dto.FormResponse, error) {
	return s.edit(ctx, userID, formID, func(schema form.Schema) (form.Schema, error) {
		field, err := form.NewField(kind)
		if err != nil {
			return nil, err
		}
		return schema.Append(field), nil
	})
}

func (s *formServiceImpl) UpdateField(ctx context.Context, userID, formID uuid.UUID, fieldID string, metadata form.Metadata) (*dto.FormResponse, error) {
	return s.edit(ctx, userID, formID, func(schema form.Schema) (form.Schema, error) {
		field, ok := schema.Find(fieldID)
		if !ok {
			return nil, form.ErrFieldMissing
		}
		field.Metadata = metadata
		return schema.ReplaceField(field)
	})
}

func (s *formServiceImpl) RemoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string) (*dto.FormResponse, error) {
	return s.edit(ctx, userID, formID, func(schema form.Schema) (form.Schema, error) {
		return schema.RemoveField(fieldID)
	})
}

func (s *formServiceImpl) MoveField(ctx context.Context, userID, formID uuid.UUID, fieldID string, position int) (*dto.FormResponse, error) {
	return s.edit(ctx, userID, formID, func(schema form.Schema) (form.Schema, error) {
		return schema.MoveField(fieldID, position)
	})
}

// RenderForm describes every field as a designer preview or an empty input widget
func (s *formServiceImpl) RenderForm(ctx context.Context, formID uuid.UUID, mode string) (*dto.RenderFormResponse, error) {
	if mode == "" {
		mode = RenderModeInput
	}
	if mode != RenderModeInput && mode != RenderModeDesigner {
		return nil, response.NewValidationError("Unknown render mode", mode)
	}
	_, schema, err := s.load(ctx, formID)
	if err != nil {
		return nil, err
	}

	widgets := make([]form.Widget, 0, len(schema))
	for _, f := range schema {
		if mode == RenderModeDesigner {
			widgets = append(widgets, form.DesignerPreview(f))
		} else {
			widgets = append(widgets, form.Input(f, "", nil).Widget)
		}
	}
	return &dto.RenderFormResponse{FormID: formID, Mode: mode, Widgets: widgets}, nil
}

func (s *formServiceImpl) Palette() []form.PaletteEntry {
	return form.Palette()
}

func (s *formServiceImpl) edit(ctx context.Context, userID, formID uuid.UUID, change func(form.Schema) (form.Schema, error)) (*dto.FormResponse, error) {
	def, schema, err := s.load(ctx, formID)
	if err != nil {
		return nil, err
	}
	artist, err := s.artistRepo.FindByUserID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to load artist", err.Error())
	}
	if artist == nil || artist.ID != def.ArtistID {
		return nil, response.NewForbiddenError("Only the form's artist can edit it", "")
	}

	schema, err = change(schema)
	if err != nil {
		switch {
		case errors.Is(err, form.ErrFieldMissing):
			return nil, response.NewNotFoundError("Field not found", "")
		case errors.Is(err, form.ErrUnknownKind), errors.Is(err, form.ErrKindDisabled):
			return nil, response.NewValidationError("Field kind cannot be added", err.Error())
		}
		return nil, response.NewValidationError("Invalid form edit", err.Error())
	}

	data, err := schema.Marshal()
	if err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to encode form", err.Error())
	}
	if err := s.formRepo.UpdateFields(ctx, formID, data); err != nil {
		return nil, response.NewAppError(response.ErrCodeInternal, "Failed to save form", err.Error())
	}
	def.Fields = data
	return toFormResponse(def, schema), nil
}

func (s *formServiceImpl) load(ctx context.Context, formID uuid.UUID) (*domain.FormDefinition, form.Schema, error) {
	def, err := s.formRepo.FindByID(ctx, formID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, response.NewNotFoundError("Form not found", "")
		}
		return nil, nil, response.NewAppError(response.ErrCodeInternal, "Failed to load form", err.Error())
	}
	schema, err := form.ParseSchema(def.Fields)
	if err != nil {
		return nil, nil, response.NewAppError(response.ErrCodeInternal, "Stored form schema is corrupt", err.Error())
	}
	return def, schema, nil
}
