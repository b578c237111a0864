package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-bus/internal/grid"
	"github.com/nerrad567/gray-logic-bus/internal/replication"
)

type interfaceNameRequest struct {
	Name string `json:"name"`
}

type facadeRequest struct {
	Facade string `json:"facade"`
}

// snapshot returns the replicated view of the node at pos.
func (s *Server) snapshot(pos grid.Pos) (replication.Snapshot, bool) {
	src, ok := s.net.World().Block(pos).(replication.SnapshotSource)
	if !ok {
		return replication.Snapshot{}, false
	}
	return src.Snapshot(), true
}

func nodePos(w http.ResponseWriter, r *http.Request) (grid.Pos, bool) {
	pos, err := grid.ParsePos(chi.URLParam(r, "pos"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return grid.Pos{}, false
	}
	return pos, true
}

// handleGetNode returns the snapshot of a node.
func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	pos, ok := nodePos(w, r)
	if !ok {
		return
	}
	snap, ok := s.snapshot(pos)
	if !ok {
		writeNotFound(w, "no bus node at "+pos.String())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSetInterfaceName labels one face of a node.
func (s *Server) handleSetInterfaceName(w http.ResponseWriter, r *http.Request) {
	pos, ok := nodePos(w, r)
	if !ok {
		return
	}
	side, err := grid.ParseDirection(chi.URLParam(r, "side"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req interfaceNameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	s.applyAndRespond(w, r, replication.InterfaceNameChanged(pos, side, req.Name))
}

// handleSetFacade sets the facade of a node. A reference that is not a
// valid block clears it.
func (s *Server) handleSetFacade(w http.ResponseWriter, r *http.Request) {
	pos, ok := nodePos(w, r)
	if !ok {
		return
	}
	var req facadeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	s.applyAndRespond(w, r, replication.FacadeChanged(pos, req.Facade))
}

// handleRemoveFacade clears the facade of a node.
func (s *Server) handleRemoveFacade(w http.ResponseWriter, r *http.Request) {
	pos, ok := nodePos(w, r)
	if !ok {
		return
	}
	s.applyAndRespond(w, r, replication.FacadeChanged(pos, ""))
}

func (s *Server) applyAndRespond(w http.ResponseWriter, r *http.Request, m replication.Message) {
	ctx, cancel := context.WithTimeout(r.Context(), s.invokeTimeout)
	defer cancel()

	if err := s.applier.Apply(ctx, m); err != nil {
		writeBusError(w, err)
		return
	}
	snap, ok := s.snapshot(m.Pos)
	if !ok {
		writeJSON(w, http.StatusNoContent, nil)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
