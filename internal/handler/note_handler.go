package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/middleware"
	"github.com/tharunrega/Multi-Tenant-Notes-App/internal/model"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/database"
	"github.com/tharunrega/Multi-Tenant-Notes-App/pkg/logger"
	"github.com/tharunrega/Multi-Tenant-Notes-App/prometheus"
)

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// noteQuery selects notes with the author's email joined as created_by.
func noteQuery(db *gorm.DB) *gorm.DB {
	return db.Table("notes").
		Select("notes.*, users.email AS created_by").
		Joins("JOIN users ON users.id = notes.user_id")
}

// ListNotes returns every note of the caller's tenant, newest change first.
func ListNotes(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("list")
	p := middleware.PrincipalFromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	notes := []model.Note{}
	result := noteQuery(database.GetDB()).
		Where("notes.tenant_id = ?", p.TenantID).
		Order("notes.updated_at DESC").
		Find(&notes)
	if result.Error != nil {
		log.Error("Failed to fetch notes", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to fetch notes"})
	}

	return c.JSON(http.StatusOK, notes)
}

// GetNote returns a single note by id. Notes of other tenants are reported
// as not found, indistinguishable from ids that never existed.
func GetNote(c echo.Context) error {
	prometheus.RecordNoteOperation("get")
	p := middleware.PrincipalFromContext(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var note model.Note
	result := noteQuery(database.GetDB()).
		Where("notes.id = ? AND notes.tenant_id = ?", c.Param("id"), p.TenantID).
		Take(&note)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found"})
	}

	return c.JSON(http.StatusOK, note)
}

// CreateNote creates a note for the caller's tenant, enforcing the free-plan
// quota. The count and the insert are separate statements; two concurrent
// creates can both pass the check and exceed the limit by one. Accepted
// best-effort behavior.
func CreateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("create")
	p := middleware.PrincipalFromContext(c)

	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title and content are required"})
	}

	if p.TenantPlan == model.PlanFree {
		var count int64
		if result := database.GetDB().Model(&model.Note{}).Where("tenant_id = ?", p.TenantID).Count(&count); result.Error != nil {
			log.Error("Failed to count notes", zap.Error(result.Error))
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
		}
		if count >= model.FreePlanNoteLimit {
			log.Info("Free plan note limit reached", zap.String("tenant", p.TenantSlug))
			prometheus.QuotaLimitCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":        "Free plan limit reached. Upgrade to Pro to create more notes.",
				"limitReached": true,
			})
		}
	}

	note := model.Note{
		ID:       uuid.NewString(),
		Title:    req.Title,
		Content:  req.Content,
		TenantID: p.TenantID,
		UserID:   p.UserID,
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	if result := database.GetDB().Create(&note); result.Error != nil {
		log.Error("Failed to create note", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
	}

	var created model.Note
	if result := noteQuery(database.GetDB()).
		Where("notes.id = ? AND notes.tenant_id = ?", note.ID, p.TenantID).
		Take(&created); result.Error != nil {
		log.Error("Failed to load created note", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to create note"})
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateNote replaces a note's title and content and bumps updated_at.
func UpdateNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("update")
	p := middleware.PrincipalFromContext(c)

	var req noteRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Content == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Title and content are required"})
	}

	var existing model.Note
	if result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), p.TenantID).
		Take(&existing); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	updates := map[string]interface{}{
		"title":      req.Title,
		"content":    req.Content,
		"updated_at": time.Now(),
	}
	if result := database.GetDB().Model(&model.Note{}).
		Where("id = ? AND tenant_id = ?", existing.ID, p.TenantID).
		Updates(updates); result.Error != nil {
		log.Error("Failed to update note", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to update note"})
	}

	var updated model.Note
	if result := noteQuery(database.GetDB()).
		Where("notes.id = ? AND notes.tenant_id = ?", existing.ID, p.TenantID).
		Take(&updated); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found"})
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteNote removes a note by id within the caller's tenant.
func DeleteNote(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordNoteOperation("delete")
	p := middleware.PrincipalFromContext(c)

	var existing model.Note
	if result := database.GetDB().
		Where("id = ? AND tenant_id = ?", c.Param("id"), p.TenantID).
		Take(&existing); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Note not found"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())
	if result := database.GetDB().
		Where("id = ? AND tenant_id = ?", existing.ID, p.TenantID).
		Delete(&model.Note{}); result.Error != nil {
		log.Error("Failed to delete note", zap.Error(result.Error))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to delete note"})
	}

	return c.NoContent(http.StatusNoContent)
}
