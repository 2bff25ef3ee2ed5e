// Package project implements video project CRUD and transcript editing on
// top of a store.Store. All operations are scoped to the owning user.
package project

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/video-stream/editor/internal/db/models"
	"github.com/video-stream/editor/internal/editor"
	"github.com/video-stream/editor/internal/logging"
	"github.com/video-stream/editor/internal/store"
)

// CreateInput is the body accepted when creating a project.
type CreateInput struct {
	Name             string                `json:"name" validate:"required,max=255"`
	OriginalFileName string                `json:"originalFileName" validate:"required,max=255"`
	Duration         *int                  `json:"duration" validate:"required,gte=0"`
	Status           *models.ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=uploading processing ready exporting"`
	Settings         *models.VideoSettings `json:"settings,omitempty"`
}

// Patch is a partial update. Nil fields are left as they are.
type Patch struct {
	Name             *string               `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	OriginalFileName *string               `json:"originalFileName,omitempty" validate:"omitempty,min=1,max=255"`
	Duration         *int                  `json:"duration,omitempty" validate:"omitempty,gte=0"`
	Status           *models.ProjectStatus `json:"status,omitempty" validate:"omitempty,oneof=uploading processing ready exporting"`
	Transcript       *models.Transcript    `json:"transcript,omitempty" validate:"-"`
	Cuts             *models.Cuts          `json:"cuts,omitempty" validate:"-"`
	Settings         *models.VideoSettings `json:"settings,omitempty"`
}

type Service struct {
	store    store.Store
	validate *validator.Validate
	log      *logrus.Entry
	now      func() time.Time

	// mu serialises read-modify-write cycles so concurrent edits and
	// pipeline completion do not overwrite each other.
	mu sync.Mutex
}

func NewService(st store.Store, log logrus.FieldLogger) *Service {
	return &Service{
		store:    st,
		validate: NewValidator(),
		log:      logging.WithComponent(log, "project"),
		now:      time.Now,
	}
}

// Validator exposes the configured validator so handlers report field names
// the same way.
func (s *Service) Validator() *validator.Validate {
	return s.validate
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (*models.VideoProject, error) {
	if err := s.validateCreate(in); err != nil {
		return nil, err
	}

	now := s.timestamp()
	p := &models.VideoProject{
		ID:               uuid.New().String(),
		UserID:           userID,
		Name:             in.Name,
		OriginalFileName: in.OriginalFileName,
		Duration:         *in.Duration,
		Transcript:       models.Transcript{},
		Cuts:             models.Cuts{},
		Settings:         models.DefaultSettings(),
		Status:           models.StatusUploading,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Settings != nil {
		p.Settings = *in.Settings
	}

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.log.WithFields(logrus.Fields{"project_id": p.ID, "user_id": userID}).Info("project created")
	return p, nil
}

func (s *Service) validateCreate(in CreateInput) error {
	return formatErrors("", s.validate.Struct(in))
}

func (s *Service) Get(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	return s.store.GetProject(ctx, userID, id)
}

// List returns the user's projects, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]*models.VideoProject, error) {
	return s.store.ListProjects(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.store.DeleteProject(ctx, userID, id); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"project_id": id, "user_id": userID}).Info("project deleted")
	return nil
}

// Update merges patch into the stored project. id, userId and createdAt are
// never changed; updatedAt always moves forward.
func (s *Service) Update(ctx context.Context, userID int64, id string, patch Patch) (*models.VideoProject, error) {
	if err := s.validatePatch(patch); err != nil {
		return nil, err
	}
	return s.mutate(ctx, userID, id, func(p *models.VideoProject) error {
		if patch.Name != nil {
			p.Name = *patch.Name
		}
		if patch.OriginalFileName != nil {
			p.OriginalFileName = *patch.OriginalFileName
		}
		if patch.Duration != nil {
			p.Duration = *patch.Duration
		}
		if patch.Status != nil {
			p.Status = *patch.Status
		}
		if patch.Transcript != nil {
			p.Transcript = editor.UpdateTranscript(*patch.Transcript)
		}
		if patch.Cuts != nil {
			p.Cuts = append(models.Cuts{}, (*patch.Cuts)...)
		}
		if patch.Settings != nil {
			p.Settings = *patch.Settings
		}
		return nil
	})
}

func (s *Service) validatePatch(patch Patch) error {
	errs := []error{formatErrors("", s.validate.Struct(patch))}
	if patch.Transcript != nil {
		errs = append(errs, s.validateTranscript(*patch.Transcript))
	}
	if patch.Cuts != nil {
		for i, c := range *patch.Cuts {
			errs = append(errs, formatErrors(fmt.Sprintf("cuts[%d]", i), s.validate.Struct(c)))
		}
	}
	return merge(errs...)
}

func (s *Service) validateTranscript(t models.Transcript) error {
	errs := make([]error, 0, len(t))
	for i, seg := range t {
		errs = append(errs, formatErrors(fmt.Sprintf("transcript[%d]", i), s.validate.Struct(seg)))
	}
	return merge(errs...)
}

// ToggleWord flips the deletion flag of the word at index. An empty
// transcript is left as is.
func (s *Service) ToggleWord(ctx context.Context, userID int64, id string, index int) (*models.VideoProject, error) {
	return s.edit(ctx, userID, id, func(st editor.State) (editor.State, error) {
		return st.ToggleWord(index)
	})
}

func (s *Service) RestoreAll(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	return s.edit(ctx, userID, id, func(st editor.State) (editor.State, error) {
		return st.RestoreAll(), nil
	})
}

// ReplaceTranscript swaps the whole transcript. Segment fields are validated
// but ordering is left to the caller.
func (s *Service) ReplaceTranscript(ctx context.Context, userID int64, id string, t models.Transcript) (*models.VideoProject, error) {
	if err := s.validateTranscript(t); err != nil {
		return nil, err
	}
	return s.edit(ctx, userID, id, func(st editor.State) (editor.State, error) {
		return st.UpdateTranscript(t), nil
	})
}

// edit loads the project into an editing session, applies fn and stores the
// resulting transcript.
func (s *Service) edit(ctx context.Context, userID int64, id string, fn func(editor.State) (editor.State, error)) (*models.VideoProject, error) {
	return s.mutate(ctx, userID, id, func(p *models.VideoProject) error {
		st, err := fn(editor.NewState().SetProject(p))
		if err != nil {
			return err
		}
		p.Transcript = st.Project.Transcript
		return nil
	})
}

// ReconcileCuts rebuilds filler and manual cuts from the deleted words.
func (s *Service) ReconcileCuts(ctx context.Context, userID int64, id string) (*models.VideoProject, error) {
	return s.mutate(ctx, userID, id, func(p *models.VideoProject) error {
		p.Cuts = editor.DeriveCuts(p.Transcript, p.Cuts)
		return nil
	})
}

func (s *Service) Stats(ctx context.Context, userID int64, id string) (editor.Stats, error) {
	p, err := s.store.GetProject(ctx, userID, id)
	if err != nil {
		return editor.Stats{}, err
	}
	return editor.ComputeStats(p.Transcript), nil
}

func (s *Service) mutate(ctx context.Context, userID int64, id string, fn func(*models.VideoProject) error) (*models.VideoProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.GetProject(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	next.ID = current.ID
	next.UserID = current.UserID
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = s.timestamp()
	if !next.UpdatedAt.After(current.UpdatedAt) {
		next.UpdatedAt = current.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.store.UpdateProject(ctx, next); err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return next, nil
}
