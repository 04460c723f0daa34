package exercises

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/gymfatigue/internal/middleware"
	"github.com/2beens/gymfatigue/internal/telemetry/tracing"
	"github.com/2beens/gymfatigue/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const defaultHistoryDays = 90

type DeleteSetResponse struct {
	DeletedID int `json:"deletedId"`
}

type ListResponse struct {
	Sets  []LoggedSet `json:"sets"`
	Total int         `json:"total"`
}

type Handler struct {
	repo    setsRepo
	history *HistoryBuilder
	now     func() time.Time
}

func NewHandler(repo setsRepo) *Handler {
	return &Handler{
		repo:    repo,
		history: NewHistoryBuilder(repo),
		now:     time.Now,
	}
}

// HandleAdd imports a set into the log outside of any live session.
func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.add")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var set LoggedSet
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		log.Tracef("add set, unmarshal json params: %s", err)
		http.Error(w, "add set failed", http.StatusBadRequest)
		return
	}
	if set.ExerciseID == "" {
		http.Error(w, "error, exercise id empty", http.StatusBadRequest)
		return
	}

	set.UserID = userID
	if set.Timestamp.IsZero() {
		set.Timestamp = handler.now()
	}

	added, err := handler.repo.Add(ctx, set)
	if err != nil {
		log.Errorf("failed to add set [%s] for [%s]: %s", set.ExerciseID, userID, err)
		http.Error(w, "error, failed to add set", http.StatusInternalServerError)
		return
	}

	log.Debugf("set added for [%s]: %s, id %d", userID, added.ExerciseID, added.ID)
	pkg.WriteJSON(w, added, http.StatusCreated)
}

// HandleList lists the user's sets. Optional query params: exercise_id,
// session_id, from and to (RFC3339).
func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	params := SetParams{
		UserID:     userID,
		ExerciseID: r.URL.Query().Get("exercise_id"),
		SessionID:  r.URL.Query().Get("session_id"),
	}
	for name, dst := range map[string]**time.Time{"from": &params.From, "to": &params.To} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Tracef("list sets, parse <%s> param: %s", name, err)
			http.Error(w, "parse form error, parameter <"+name+">", http.StatusBadRequest)
			return
		}
		*dst = &t
	}

	sets, err := handler.repo.ListAll(ctx, params)
	if err != nil {
		log.Errorf("list sets for [%s]: %s", userID, err)
		http.Error(w, "failed to get sets", http.StatusInternalServerError)
		return
	}
	if sets == nil {
		sets = []LoggedSet{}
	}

	pkg.WriteJSON(w, ListResponse{
		Sets:  sets,
		Total: len(sets),
	}, http.StatusOK)
}

// HandleHistory returns the set log grouped into daily workouts, over the
// last `days` days (default 90).
func (handler *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.history")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	days := defaultHistoryDays
	if daysStr := r.URL.Query().Get("days"); daysStr != "" {
		var err error
		days, err = strconv.Atoi(daysStr)
		if err != nil || days < 1 {
			http.Error(w, "invalid days (has to be a positive number)", http.StatusBadRequest)
			return
		}
	}

	to := handler.now()
	from := to.AddDate(0, 0, -days)
	history, err := handler.history.History(ctx, userID, from, to)
	if err != nil {
		log.Errorf("failed to build history for [%s]: %s", userID, err)
		http.Error(w, "failed to get history", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, history, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	userID := r.Header.Get(middleware.UserIDHeader)
	if userID == "" {
		http.Error(w, "error, user id empty", http.StatusBadRequest)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, ErrSetNotFound) {
			log.Debugf("set %d not found for [%s]", id, userID)
			http.Error(w, "set not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete set %d: %s", id, err)
		http.Error(w, "set not deleted", http.StatusInternalServerError)
		return
	}

	pkg.WriteJSON(w, DeleteSetResponse{DeletedID: id}, http.StatusOK)
}
