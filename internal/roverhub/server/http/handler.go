package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const maxBodyBytes = 1 << 20

type statusResponse struct {
	Status string             `json:"status"`
	Data   *model.SystemState `json:"data,omitempty"`
}

type controlResponse struct {
	Status string `json:"status"`
	model.ControlResult
}

type errorResponse struct {
	Error   string   `json:"error"`
	Missing []string `json:"missing,omitempty"`
}

func (s *Server) startMission(w http.ResponseWriter, r *http.Request) {
	var params model.MissionParams
	if err := decodeBody(r, &params); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if missing := params.Missing(); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Missing fields", Missing: missing})
		return
	}

	snap, err := s.svc.StartMission(r.Context(), params)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "Mission started", Data: &snap.State})
}

func (s *Server) completeMission(w http.ResponseWriter, r *http.Request) {
	snap, err := s.svc.CompleteMission(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "Mission completed", Data: &snap.State})
}

func (s *Server) controlRover(w http.ResponseWriter, r *http.Request) {
	var req model.ControlRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.ControlRover(r.Context(), req.RoverID, req.Command)
	switch {
	case errors.Is(err, core.ErrInvalidRover):
		writeError(w, http.StatusBadRequest, "Invalid or missing rover_id")
	case errors.Is(err, core.ErrInvalidCommand):
		writeError(w, http.StatusBadRequest, "Invalid command")
	case err != nil:
		writeError(w, statusFor(err), err.Error())
	default:
		writeJSON(w, http.StatusOK, controlResponse{Status: "Command received", ControlResult: *res})
	}
}

func (s *Server) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Snapshot().State)
}

// decodeBody rejects anything but a single JSON object.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errors.New("Invalid value for " + typeErr.Field)
		}
		return errors.New("Invalid JSON body")
	}
	return nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrInvalidRover),
		errors.Is(err, core.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
