package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/service/flocks"
)

// FlockService is the flocks service surface used by the HTTP layer.
type FlockService interface {
	ComputeAgeByDate(hatchDate, targetDate string) (agecalc.AgeResult, error)
	ComputeDateByAge(hatchDate string, weeks, days int) (agecalc.DateResult, error)
	ListFlocks() []models.FlockRecord
	AddOrUpdateFlock(name, hatchDate string) (bool, error)
	DeleteFlock(name string) (bool, bool)
	BatchComputeAges(targetDate string) ([]models.FlockAge, error)
	BatchComputeDates(weeks, days int) ([]models.FlockDate, error)
	Today() time.Time
	FormatDate(t time.Time) string
}

// FlockHandler exposes flock age calculations and the flock registry over HTTP.
type FlockHandler struct {
	svc    FlockService
	logger *zap.Logger
}

// NewFlockHandler constructs the HTTP handler adapter.
func NewFlockHandler(svc FlockService, logger *zap.Logger) *FlockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FlockHandler{svc: svc, logger: logger}
}

type flockResponse struct {
	Name      string `json:"name"`
	HatchDate string `json:"hatch_date"`
}

type upsertFlockRequest struct {
	HatchDate string `json:"hatch_date" binding:"required"`
}

// AgeByDate handles GET /api/age?hatch=YYYY-MM-DD&target=YYYY-MM-DD. target defaults to today.
func (h *FlockHandler) AgeByDate(c *gin.Context) {
	hatch := c.Query("hatch")
	target := c.Query("target")
	if strings.TrimSpace(target) == "" {
		target = h.svc.Today().Format(agecalc.DateLayout)
	}

	age, err := h.svc.ComputeAgeByDate(hatch, target)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hatch_date":  hatch,
		"target_date": target,
		"total_days":  age.TotalDays,
		"weeks":       age.Weeks,
		"extra_days":  age.ExtraDays,
	})
}

// DateByAge handles GET /api/date?hatch=YYYY-MM-DD&weeks=N&days=N. days defaults to 0.
func (h *FlockHandler) DateByAge(c *gin.Context) {
	weeks, days, ok := h.ageParams(c)
	if !ok {
		return
	}

	hatch := c.Query("hatch")
	res, err := h.svc.ComputeDateByAge(hatch, weeks, days)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"hatch_date":   hatch,
		"target_date":  res.TargetDateString(),
		"display_date": h.svc.FormatDate(res.TargetDate),
		"total_days":   res.TotalDays,
	})
}

// List handles GET /api/flocks.
func (h *FlockHandler) List(c *gin.Context) {
	records := h.svc.ListFlocks()
	out := make([]flockResponse, 0, len(records))
	for _, r := range records {
		out = append(out, flockResponse{Name: r.Name, HatchDate: r.HatchDate.Format(agecalc.DateLayout)})
	}
	c.JSON(http.StatusOK, out)
}

// Upsert handles PUT /api/flocks/:name.
func (h *FlockHandler) Upsert(c *gin.Context) {
	var req upsertFlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid flock payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "hatch_date is required", "kind": "invalid_format"})
		return
	}

	name := c.Param("name")
	persisted, err := h.svc.AddOrUpdateFlock(name, req.HatchDate)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":       strings.TrimSpace(name),
		"hatch_date": req.HatchDate,
		"persisted":  persisted,
	})
}

// Delete handles DELETE /api/flocks/:name. Unknown names succeed with removed=false.
func (h *FlockHandler) Delete(c *gin.Context) {
	removed, persisted := h.svc.DeleteFlock(c.Param("name"))
	c.JSON(http.StatusOK, gin.H{"removed": removed, "persisted": persisted})
}

// BatchAges handles GET /api/flocks/ages?target=YYYY-MM-DD.
func (h *FlockHandler) BatchAges(c *gin.Context) {
	rows, err := h.svc.BatchComputeAges(c.Query("target"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

// BatchDates handles GET /api/flocks/dates?weeks=N&days=N.
func (h *FlockHandler) BatchDates(c *gin.Context) {
	weeks, days, ok := h.ageParams(c)
	if !ok {
		return
	}

	rows, err := h.svc.BatchComputeDates(weeks, days)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (h *FlockHandler) ageParams(c *gin.Context) (weeks, days int, ok bool) {
	weeks, err := agecalc.ParseAgeComponent(c.Query("weeks"))
	if err != nil {
		writeError(c, h.logger, err)
		return 0, 0, false
	}
	if raw := c.Query("days"); raw != "" {
		if days, err = agecalc.ParseAgeComponent(raw); err != nil {
			writeError(c, h.logger, err)
			return 0, 0, false
		}
	}
	return weeks, days, true
}

// writeError maps domain errors to a status and a machine-readable kind.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	status, kind := http.StatusInternalServerError, "internal"
	switch {
	case errors.Is(err, agecalc.ErrInvalidFormat):
		status, kind = http.StatusBadRequest, "invalid_format"
	case errors.Is(err, agecalc.ErrInvalidRange):
		status, kind = http.StatusBadRequest, "invalid_range"
	case errors.Is(err, registry.ErrValidation):
		status, kind = http.StatusBadRequest, "validation"
	case errors.Is(err, flocks.ErrFlockNotFound):
		status, kind = http.StatusNotFound, "not_found"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("flock request failed", zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
}
