package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
)

type controllerResponse struct {
	Pos        grid.Pos   `json:"pos"`
	State      bus.State  `json:"state"`
	Elements   int        `json:"elements"`
	Devices    int        `json:"devices"`
	Energy     float64    `json:"energy"`
	Generation uint64     `json:"generation"`
	Pending    bool       `json:"pending"`
	ScannedAt  *time.Time `json:"scanned_at,omitempty"`
}

func toControllerResponse(c *bus.Controller) controllerResponse {
	r := c.Result()
	resp := controllerResponse{
		Pos:        c.Pos(),
		State:      r.State,
		Elements:   len(r.Elements),
		Devices:    len(r.Devices),
		Energy:     r.Energy,
		Generation: r.Generation,
		Pending:    c.Pending(),
	}
	if !r.ScannedAt.IsZero() {
		ts := r.ScannedAt
		resp.ScannedAt = &ts
	}
	return resp
}

// handleListControllers returns every live controller with its latest scan.
func (s *Server) handleListControllers(w http.ResponseWriter, _ *http.Request) {
	controllers := s.net.Controllers()
	out := make([]controllerResponse, 0, len(controllers))
	for _, c := range controllers {
		out = append(out, toControllerResponse(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"controllers": out,
		"count":       len(out),
	})
}

// handleScheduleScan asks a controller to rescan on the next tick.
func (s *Server) handleScheduleScan(w http.ResponseWriter, r *http.Request) {
	pos, err := grid.ParsePos(chi.URLParam(r, "pos"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.invokeTimeout)
	defer cancel()

	var found bool
	err = s.exec.Execute(ctx, func() {
		var c *bus.Controller
		if c, found = s.net.Controller(pos); found {
			c.ScheduleScan()
		}
	})
	if err != nil {
		writeBusError(w, err)
		return
	}
	if !found {
		writeNotFound(w, "no controller at "+pos.String())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"pos":       pos,
		"scheduled": true,
	})
}
