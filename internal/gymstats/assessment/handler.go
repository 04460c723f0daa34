package assessment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/2beens/gymfatigue/internal/fatigue/sequential"
	"github.com/2beens/gymfatigue/internal/middleware"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"
	"github.com/2beens/gymfatigue/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type StartSessionRequest struct {
	PriorFatigue float64 `json:"priorFatigue,omitempty"`
}

type StartSessionResponse struct {
	SessionID string `json:"sessionId"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service: service,
	}
}

// RegisterRoutes mounts the fatigue endpoints on r.
func (handler *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/assess", handler.HandleAssess).Methods("POST", "OPTIONS").Name("fatigue-assess")
	r.HandleFunc("/assess/enhanced", handler.HandleAssessEnhanced).Methods("POST", "OPTIONS").Name("fatigue-assess-enhanced")
	r.HandleFunc("/rpe-calibration", handler.HandleRPECalibration).Methods("POST", "OPTIONS").Name("fatigue-rpe-calibration")
	r.HandleFunc("/workload", handler.HandleWorkload).Methods("GET", "OPTIONS").Name("fatigue-workload")
	r.HandleFunc("/sessions", handler.HandleStartSession).Methods("POST", "OPTIONS").Name("fatigue-session-start")
	r.HandleFunc("/sessions/{id}/sets", handler.HandleLogSet).Methods("POST", "OPTIONS").Name("fatigue-session-log-set")
	r.HandleFunc("/sessions/{id}/end", handler.HandleEndSession).Methods("POST", "OPTIONS").Name("fatigue-session-end")
}

func (handler *Handler) HandleAssess(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.assess")
	defer span.End()

	var req AssessRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.UpcomingExerciseID == "" {
		http.Error(w, "error, upcoming exercise id empty", http.StatusBadRequest)
		return
	}

	alert, err := handler.service.AssessFatigue(ctx, req)
	if err != nil {
		writeServiceError(w, "assess fatigue", req.UserID, err)
		return
	}
	pkg.WriteJSON(w, alert, http.StatusOK)
}

func (handler *Handler) HandleAssessEnhanced(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.assessEnhanced")
	defer span.End()

	var req AssessRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	if req.UpcomingExerciseID == "" {
		http.Error(w, "error, upcoming exercise id empty", http.StatusBadRequest)
		return
	}

	result, err := handler.service.AssessFatigueEnhanced(ctx, req)
	if err != nil {
		writeServiceError(w, "assess fatigue enhanced", req.UserID, err)
		return
	}
	pkg.WriteJSON(w, result, http.StatusOK)
}

func (handler *Handler) HandleRPECalibration(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.rpeCalibration")
	defer span.End()

	var req RPECalibrationRequest
	if !decodeRequest(w, r, &req) {
		return
	}

	calibration, err := handler.service.AnalyzeRPECalibration(ctx, req)
	if err != nil {
		writeServiceError(w, "rpe calibration", req.UserID, err)
		return
	}
	pkg.WriteJSON(w, calibration, http.StatusOK)
}

func (handler *Handler) HandleWorkload(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.workload")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	report, err := handler.service.Workload(ctx, userID)
	if err != nil {
		writeServiceError(w, "workload", userID, err)
		return
	}
	pkg.WriteJSON(w, report, http.StatusOK)
}

func (handler *Handler) HandleStartSession(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.startSession")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Tracef("start session, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.PriorFatigue < 0 || req.PriorFatigue > 100 {
		http.Error(w, "invalid prior fatigue (has to be within 0-100)", http.StatusBadRequest)
		return
	}

	id := handler.service.StartSession(userID, req.PriorFatigue)
	pkg.WriteJSON(w, StartSessionResponse{SessionID: id}, http.StatusCreated)
}

func (handler *Handler) HandleLogSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.logSet")
	defer span.End()

	var req LogSetRequest
	if !decodeRequest(w, r, &req) {
		return
	}
	req.SessionID = mux.Vars(r)["id"]

	resp, err := handler.service.LogSet(ctx, req)
	if err != nil {
		writeServiceError(w, "log set", req.UserID, err)
		return
	}
	pkg.WriteJSON(w, resp, http.StatusCreated)
}

func (handler *Handler) HandleEndSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.fatigue.endSession")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	resp, err := handler.service.EndSession(ctx, userID, mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, "end session", userID, err)
		return
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

// decodeRequest reads the JSON body into dst and fills its UserID from the
// user header. It writes the error response itself and reports success.
func decodeRequest(w http.ResponseWriter, r *http.Request, dst interface{ setUserID(string) }) bool {
	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return false
	}
	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		log.Tracef("unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	dst.setUserID(userID)
	return true
}

func (req *AssessRequest) setUserID(id string)         { req.UserID = id }
func (req *RPECalibrationRequest) setUserID(id string) { req.UserID = id }
func (req *LogSetRequest) setUserID(id string)         { req.UserID = id }

func writeServiceError(w http.ResponseWriter, op, userID string, err error) {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		http.Error(w, "session not found", http.StatusNotFound)
	case errors.Is(err, sequential.ErrSessionClosed):
		http.Error(w, "session closed", http.StatusConflict)
	case errors.Is(err, ErrInvalidSet):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Errorf("%s for [%s]: %s", op, userID, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
