package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/map-insights/internal/explorer"
	"github.com/sells-group/map-insights/internal/model"
)

const maxBodyBytes = 1 << 16

type styleRequest struct {
	Style string `json:"style" validate:"required"`
}

type searchRequest struct {
	Query string `json:"query" validate:"max=512"`
}

type pressRequest struct {
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
}

// The upper bound matches geometry.MaxZoom.
type regionRequest struct {
	Zoom *float64 `json:"zoom" validate:"required,gte=0,lte=22"`
}

type sessionResponse struct {
	ID   string        `json:"id"`
	View explorer.View `json:"view"`
}

type errorResponse struct {
	Error string          `json:"error"`
	Kind  model.ErrorKind `json:"kind,omitempty"`
	View  *explorer.View  `json:"view,omitempty"`
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *explorer.Session)

// withSession resolves the {id} path parameter, answering 404 for unknown
// or expired sessions.
func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		sess, ok := s.reg.Get(id)
		if !ok {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
			return
		}
		h(w, r, sess)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok", "sessions": s.reg.Len()}
	if s.opts.Breakers != nil {
		states := make(map[string]string)
		for name, st := range s.opts.Breakers.States() {
			states[name] = st.String()
		}
		body["breakers"] = states
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	sess := s.reg.Create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, View: sess.View()})
}

func (s *Server) handleView(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	writeView(w, sess)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.reg.Delete(chi.URLParam(r, "id")) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request, sess *explorer.Session) {
	var req styleRequest
	if !s.decode(w, r, &req) {
		return
	}
	style, err := model.ParseBasemapStyle(req.Style)
	if err == nil {
		err = sess.Modes.SetBasemapStyle(style)
	}
	respond(w, sess, err)
}

func (s *Server) handleToggleDemographic(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	sess.Modes.ToggleDemographic()
	writeView(w, sess)
}

func (s *Server) handleTogglePlaces(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	respond(w, sess, sess.Modes.TogglePlaceDetails())
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *explorer.Session) {
	var req searchRequest
	if !s.decode(w, r, &req) {
		return
	}
	respond(w, sess, sess.Fetch.RunSearch(r.Context(), req.Query))
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request, sess *explorer.Session) {
	var req pressRequest
	if !s.decode(w, r, &req) {
		return
	}
	point := model.Coordinate{Longitude: *req.Longitude, Latitude: *req.Latitude}
	respond(w, sess, sess.Map.OnPress(r.Context(), point))
}

func (s *Server) handleRegion(w http.ResponseWriter, r *http.Request, sess *explorer.Session) {
	var req regionRequest
	if !s.decode(w, r, &req) {
		return
	}
	sess.Map.OnRegionChanged(*req.Zoom)
	writeView(w, sess)
}

func (s *Server) handleZoomIn(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	sess.Modes.ZoomIn()
	writeView(w, sess)
}

func (s *Server) handleZoomOut(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	sess.Modes.ZoomOut()
	writeView(w, sess)
}

func (s *Server) handleDismissPopup(w http.ResponseWriter, _ *http.Request, sess *explorer.Session) {
	sess.Modes.DismissPopup()
	writeView(w, sess)
}

// decode reads and validates a JSON body into dst. On failure it writes the
// error response and returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		msg := err.Error()
		if errors.As(err, &verrs) && len(verrs) > 0 {
			msg = verrs[0].Field() + " failed " + verrs[0].Tag() + " validation"
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: msg, Kind: model.KindValidation})
		return false
	}
	return true
}

// respond writes the session view, or the error with the view attached.
func respond(w http.ResponseWriter, sess *explorer.Session, err error) {
	if err == nil {
		writeView(w, sess)
		return
	}
	v := sess.View()
	writeJSON(w, statusFor(err), errorResponse{Error: err.Error(), Kind: kindFor(err), View: &v})
}

func kindFor(err error) model.ErrorKind {
	if errors.Is(err, explorer.ErrSuperseded) {
		return ""
	}
	return model.KindOf(err)
}

// statusFor maps a command error to an HTTP status.
func statusFor(err error) int {
	if errors.Is(err, explorer.ErrSuperseded) {
		return http.StatusConflict
	}
	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusUnprocessableEntity
	case model.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func writeView(w http.ResponseWriter, sess *explorer.Session) {
	writeJSON(w, http.StatusOK, sess.View())
}

// writeJSON encodes body before committing the status, so an unencodable
// body becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		zap.L().Error("api: encode response", zap.Error(eris.Wrap(err, "api: write json")))
		status = http.StatusInternalServerError
		data = []byte(`{"error":"failed to encode response"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		zap.L().Debug("api: write response", zap.Error(err))
	}
}
