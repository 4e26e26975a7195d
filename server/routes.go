package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wfunc/sketchparty/logger"
	"github.com/wfunc/sketchparty/models"
	"github.com/wfunc/sketchparty/room"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Warnf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, room.ErrInvalidIntent):
		status = http.StatusBadRequest
	case errors.Is(err, room.ErrRoomNotFound):
		status = http.StatusNotFound
	}
	notice := models.ErrorNotice{Code: room.ErrorCode(err), Message: err.Error()}
	if status == http.StatusInternalServerError {
		logger.Log.Errorf("http: %v", err)
		notice.Message = "internal error"
	}
	writeJSON(w, status, notice)
}

func (s *GameServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.controller.PublicRooms(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if rooms == nil {
		rooms = []*models.Room{}
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *GameServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.Join(room.ErrInvalidIntent, err))
		return
	}
	created, err := s.controller.CreateRoom(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *GameServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	found, err := s.controller.Room(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, found)
}

func (s *GameServer) handleScoreboard(w http.ResponseWriter, r *http.Request) {
	scores, err := s.controller.Scoreboard(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}
