package handlers

import (
	"net/http"

	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// DefaultFoodItemLimit caps the food suggestions list
const DefaultFoodItemLimit = 50

// CatalogHandler serves food items, sports, exercises and routines
type CatalogHandler struct {
	catalogService service.CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetFoodItems handles GET /api/v1/food-items?limit=
// Items are ordered by how often the user logged them.
func (h *CatalogHandler) GetFoodItems(c *gin.Context) {
	limit, ok := queryInt(c, "limit", DefaultFoodItemLimit)
	if !ok {
		return
	}
	if limit <= 0 || limit > DefaultFoodItemLimit {
		limit = DefaultFoodItemLimit
	}

	items, err := h.catalogService.ListFoodItems(c.Request.Context(), middleware.UserID(c), limit)
	if err != nil {
		writeServiceError(c, err, "food items", "")
		return
	}

	c.JSON(http.StatusOK, items)
}

// GetSports handles GET /api/v1/sports
func (h *CatalogHandler) GetSports(c *gin.Context) {
	sports, err := h.catalogService.ListSports(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "sports", "")
		return
	}

	c.JSON(http.StatusOK, sports)
}

// CreateSport handles POST /api/v1/sports
func (h *CatalogHandler) CreateSport(c *gin.Context) {
	var req models.CreateSportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}

	sport, err := h.catalogService.CreateSport(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, err, "sport", "")
		return
	}

	c.JSON(http.StatusCreated, sport)
}

// GetExercises handles GET /api/v1/exercises
func (h *CatalogHandler) GetExercises(c *gin.Context) {
	exercises, err := h.catalogService.ListExercises(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "exercises", "")
		return
	}

	c.JSON(http.StatusOK, exercises)
}

// CreateExercise handles POST /api/v1/exercises
func (h *CatalogHandler) CreateExercise(c *gin.Context) {
	var req models.CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}

	exercise, err := h.catalogService.CreateExercise(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, err, "exercise", "")
		return
	}

	c.JSON(http.StatusCreated, exercise)
}

// GetRoutines handles GET /api/v1/routines
func (h *CatalogHandler) GetRoutines(c *gin.Context) {
	routines, err := h.catalogService.ListRoutines(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		writeServiceError(c, err, "routines", "")
		return
	}

	c.JSON(http.StatusOK, routines)
}

// CreateRoutine handles POST /api/v1/routines
func (h *CatalogHandler) CreateRoutine(c *gin.Context) {
	var req models.CreateRoutineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeBadJSON(c, err)
		return
	}

	routine, err := h.catalogService.CreateRoutine(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		writeServiceError(c, err, "routine", "")
		return
	}

	c.JSON(http.StatusCreated, routine)
}

// DeleteRoutine handles DELETE /api/v1/routines/:id
func (h *CatalogHandler) DeleteRoutine(c *gin.Context) {
	routineID := c.Param("id")

	if err := h.catalogService.DeleteRoutine(c.Request.Context(), middleware.UserID(c), routineID); err != nil {
		writeServiceError(c, err, "routine", routineID)
		return
	}

	noContent(c)
}
