package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/repository/registry"
)

// SnapshotHistory reads back the daily snapshots archived for one flock.
type SnapshotHistory interface {
	History(ctx context.Context, flock string) ([]models.AgeSnapshot, error)
}

// HistoryHandler serves the snapshot archive.
type HistoryHandler struct {
	store  SnapshotHistory
	logger *zap.Logger
}

// NewHistoryHandler constructs the HTTP handler adapter.
func NewHistoryHandler(store SnapshotHistory, logger *zap.Logger) *HistoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryHandler{store: store, logger: logger}
}

type snapshotResponse struct {
	Date      string `json:"date"`
	HatchDate string `json:"hatch_date"`
	TotalDays int    `json:"total_days"`
	Weeks     int    `json:"weeks"`
	ExtraDays int    `json:"extra_days"`
}

// History handles GET /api/flocks/:name/history.
func (h *HistoryHandler) History(c *gin.Context) {
	name, err := registry.NormalizeName(c.Param("name"))
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	snapshots, err := h.store.History(c.Request.Context(), name)
	if err != nil {
		h.logger.Error("snapshot history failed", zap.String("flock", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read snapshot history", "kind": "internal"})
		return
	}

	out := make([]snapshotResponse, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, snapshotResponse{
			Date:      s.Date.Format(agecalc.DateLayout),
			HatchDate: s.HatchDate.Format(agecalc.DateLayout),
			TotalDays: s.TotalDays,
			Weeks:     s.Weeks,
			ExtraDays: s.ExtraDays,
		})
	}
	c.JSON(http.StatusOK, gin.H{"flock": name, "snapshots": out})
}
