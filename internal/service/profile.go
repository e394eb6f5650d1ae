package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
)

type profileService struct {
	profiles  repository.ProfileRepository
	changeLog repository.ChangeLogRepository
	tx        repository.Transactor
	publisher Publisher
}

// NewProfileService creates a new profile service. changeLog and publisher
// may be nil.
func NewProfileService(
	profiles repository.ProfileRepository,
	changeLog repository.ChangeLogRepository,
	tx repository.Transactor,
	publisher Publisher,
) ProfileService {
	return &profileService{
		profiles:  profiles,
		changeLog: changeLog,
		tx:        tx,
		publisher: publisher,
	}
}

func (s *profileService) Get(ctx context.Context, ownerID string) (*models.UserProfile, error) {
	if ownerID == "" {
		return models.DefaultProfile(""), nil
	}
	return loadProfile(ctx, s.profiles, ownerID)
}

// Upsert merges req into the stored profile. The read, the write and the
// change feed entry share one transaction.
func (s *profileService) Upsert(ctx context.Context, ownerID string, req *models.UpsertProfileRequest) (*models.UserProfile, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var saved *models.UserProfile
	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		current, err := s.profiles.Get(ctx, ownerID)
		if errors.Is(err, repository.ErrNotFound) {
			current = models.DefaultProfile(ownerID)
		} else if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		req.Apply(current)
		saved, err = s.profiles.Upsert(ctx, current)
		if err != nil || s.changeLog == nil {
			return err
		}

		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeProfile,
			Operation:  models.OperationUpdate,
			EntityID:   ownerID,
			UserID:     ownerID,
			Data:       saved,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	publishChange(ctx, s.publisher, ownerID, change)
	return saved, nil
}
