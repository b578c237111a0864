package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-bus/internal/bus"
	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/infrastructure/metrics"
	"github.com/nerrad567/gray-logic-bus/internal/rpc"
)

type methodResponse struct {
	Name         string          `json:"name"`
	Parameters   []rpc.Parameter `json:"parameters"`
	Synchronized bool            `json:"synchronized"`
	Doc          *rpc.MethodDoc  `json:"doc,omitempty"`
}

type deviceResponse struct {
	ID         uuid.UUID        `json:"id"`
	TypeNames  []string         `json:"type_names"`
	Methods    []methodResponse `json:"methods"`
	Paths      []bus.Path       `json:"paths"`
	Controller *grid.Pos        `json:"controller,omitempty"`
}

func toDeviceResponse(d bus.DiscoveredDevice, withDocs bool) deviceResponse {
	methods := d.Device.Methods()
	resp := deviceResponse{
		ID:        d.ID,
		TypeNames: d.Device.TypeNames(),
		Methods:   make([]methodResponse, 0, len(methods)),
		Paths:     d.Paths,
	}
	for _, m := range methods {
		mr := methodResponse{
			Name:         m.Name(),
			Parameters:   m.Parameters(),
			Synchronized: m.Synchronize(),
		}
		if doc := m.Doc(); withDocs && !doc.Empty() {
			mr.Doc = &doc
		}
		resp.Methods = append(resp.Methods, mr)
	}
	return resp
}

// handleListDevices returns every device reachable from a controller.
func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.net.Devices()
	out := make([]deviceResponse, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceResponse(d, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"devices": out,
		"count":   len(out),
	})
}

// handleGetDevice returns one device with its method documentation.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, ctrl, ok := s.findDevice(w, r)
	if !ok {
		return
	}
	resp := toDeviceResponse(d, true)
	pos := ctrl.Pos()
	resp.Controller = &pos
	writeJSON(w, http.StatusOK, resp)
}

// InvokeRequest is the body of an invocation.
type InvokeRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// handleInvoke calls a method on a discovered device.
func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	d, _, ok := s.findDevice(w, r)
	if !ok {
		return
	}

	var req InvokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.Method == "" {
		writeBadRequest(w, "method is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.invokeTimeout)
	defer cancel()

	start := time.Now()
	result, err := d.Device.Invoke(ctx, s.exec, req.Method, req.Params)
	s.observeInvocation(req.Method, err, time.Since(start))
	if err != nil {
		s.logger.Debug("invocation failed",
			"device", d.ID.String(),
			"method", req.Method,
			"error", err,
		)
		writeBusError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"result": result.Value(),
	})
}

func (s *Server) observeInvocation(method string, err error, took time.Duration) {
	s.collector.ObserveInvocation(method, err)
	if s.telemetry != nil {
		s.telemetry.WriteInvocation(method, metrics.Outcome(err), took)
	}
}

func (s *Server) findDevice(w http.ResponseWriter, r *http.Request) (bus.DiscoveredDevice, *bus.Controller, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeBadRequest(w, "invalid device id")
		return bus.DiscoveredDevice{}, nil, false
	}
	d, ctrl, err := s.net.FindDevice(id)
	if err != nil {
		writeBusError(w, err)
		return bus.DiscoveredDevice{}, nil, false
	}
	return d, ctrl, true
}
