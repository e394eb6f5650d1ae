package service

import (
	"context"
	"strings"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
)

type catalogService struct {
	catalog   repository.CatalogRepository
	foodItems repository.FoodItemRepository
	changeLog repository.ChangeLogRepository
	tx        repository.Transactor
	publisher Publisher
}

// NewCatalogService creates a new catalog service
func NewCatalogService(
	catalog repository.CatalogRepository,
	foodItems repository.FoodItemRepository,
	changeLog repository.ChangeLogRepository,
	tx repository.Transactor,
	publisher Publisher,
) CatalogService {
	return &catalogService{
		catalog:   catalog,
		foodItems: foodItems,
		changeLog: changeLog,
		tx:        tx,
		publisher: publisher,
	}
}

func (s *catalogService) ListFoodItems(ctx context.Context, ownerID string, limit int) ([]models.FoodItem, error) {
	if ownerID == "" {
		return []models.FoodItem{}, nil
	}
	return s.foodItems.ListByUser(ctx, ownerID, limit)
}

// ListSports returns the shared sports, plus the caller's own when signed in
func (s *catalogService) ListSports(ctx context.Context, ownerID string) ([]models.Sport, error) {
	return s.catalog.ListSports(ctx, ownerID)
}

func (s *catalogService) CreateSport(ctx context.Context, ownerID string, req *models.CreateSportRequest) (*models.Sport, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.catalog.CreateSport(ctx, &models.Sport{
		UserID:   &ownerID,
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
	})
}

func (s *catalogService) ListExercises(ctx context.Context, ownerID string) ([]models.CatalogExercise, error) {
	return s.catalog.ListExercises(ctx, ownerID)
}

func (s *catalogService) CreateExercise(ctx context.Context, ownerID string, req *models.CreateExerciseRequest) (*models.CatalogExercise, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	return s.catalog.CreateExercise(ctx, &models.CatalogExercise{
		UserID:      &ownerID,
		Name:        strings.TrimSpace(req.Name),
		MuscleGroup: req.MuscleGroup,
	})
}

func (s *catalogService) ListRoutines(ctx context.Context, ownerID string) ([]models.Routine, error) {
	if ownerID == "" {
		return []models.Routine{}, nil
	}
	return s.catalog.ListRoutines(ctx, ownerID)
}

func (s *catalogService) CreateRoutine(ctx context.Context, ownerID string, req *models.CreateRoutineRequest) (*models.Routine, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	items := req.Items
	if items == nil {
		items = []models.RoutineItem{}
	}

	var created *models.Routine
	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.catalog.CreateRoutine(ctx, &models.Routine{
			UserID: ownerID,
			Name:   strings.TrimSpace(req.Name),
			Items:  items,
		})
		if err != nil {
			return err
		}
		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeRoutine,
			Operation:  models.OperationCreate,
			EntityID:   created.ID,
			UserID:     ownerID,
			Data:       created,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	publishChange(ctx, s.publisher, ownerID, change)
	return created, nil
}

func (s *catalogService) DeleteRoutine(ctx context.Context, ownerID, routineID string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}

	var change *models.ChangeEntry
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		routine, err := s.catalog.GetRoutine(ctx, routineID)
		if err != nil {
			return mapRepoError(err)
		}
		if routine.UserID != ownerID {
			return ErrForbidden
		}
		if err := s.catalog.DeleteRoutine(ctx, routineID); err != nil {
			return mapRepoError(err)
		}
		change, err = s.changeLog.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeRoutine,
			Operation:  models.OperationDelete,
			EntityID:   routineID,
			UserID:     ownerID,
		})
		return err
	})
	if err != nil {
		return err
	}

	publishChange(ctx, s.publisher, ownerID, change)
	return nil
}
