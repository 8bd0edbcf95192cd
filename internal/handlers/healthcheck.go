package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vietcv/skillpath/internal/platform/logger"
	"github.com/vietcv/skillpath/internal/snapshot"
)

// Prober reports reachability of one backing store.
type Prober interface {
	Healthy(ctx context.Context) bool
}

type HealthcheckHandler struct {
	log    *logger.Logger
	holder *snapshot.Holder
	probes map[string]Prober
}

func NewHealthcheckHandler(log *logger.Logger, holder *snapshot.Holder, probes map[string]Prober) *HealthcheckHandler {
	return &HealthcheckHandler{
		log:    log.With("handler", "HealthcheckHandler"),
		holder: holder,
		probes: probes,
	}
}

// GET /healthcheck
// Reports per-backend reachability plus the loaded snapshot. The service
// is "ok" as soon as a snapshot is live; backends can flap without taking
// recommendations down.
func (h *HealthcheckHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	backends := make(map[string]string, len(h.probes))
	for _, name := range sortedProbeNames(h.probes) {
		state := "down"
		if h.probes[name].Healthy(ctx) {
			state = "up"
		}
		backends[name] = state
	}

	body := gin.H{"backends": backends}
	snap, err := h.holder.Current()
	if err != nil {
		body["status"] = "starting"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["status"] = "ok"
	body["snapshot"] = gin.H{
		"version":   snap.Version,
		"loaded_at": snap.LoadedAt,
		"skills":    snap.Taxonomy.Len(),
		"courses":   len(snap.Courses),
	}
	c.JSON(http.StatusOK, body)
}

func sortedProbeNames(probes map[string]Prober) []string {
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
