package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ai-browser-assistant-service/internal/accounts"
	"ai-browser-assistant-service/internal/agent"
	"ai-browser-assistant-service/internal/app"
	"ai-browser-assistant-service/internal/events"
	"ai-browser-assistant-service/internal/observability/metrics"
	"ai-browser-assistant-service/internal/storage"
	"ai-browser-assistant-service/internal/voice"
)

// Handler serves the v1 API.
type Handler struct {
	app    *app.Application
	logger zerolog.Logger
}

type errorResponse struct {
	Error    string `json:"error"`
	ResetsIn string `json:"resetsIn,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// currentAccount resolves the signed-in account or writes a 401.
func (h *Handler) currentAccount(w http.ResponseWriter) (accounts.Account, bool) {
	account, ok := h.app.Accounts.Current()
	if !ok {
		writeError(w, http.StatusUnauthorized, "not signed in")
	}
	return account, ok
}

// --- auth ---

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	IsPremium bool      `json:"isPremium"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session, err := h.app.Accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.logger.Error().Err(err).Msg("Sign-in failed")
		writeError(w, http.StatusBadGateway, "account store unavailable")
		return
	}

	// A failed load leaves the tracker unloaded; task submission stays
	// denied until a later load succeeds.
	if _, err := h.app.Tracker.Load(r.Context(), session.Account.UserID); err != nil {
		h.logger.Error().Err(err).Str("userId", session.Account.UserID).Msg("Usage record load failed")
	}

	writeJSON(w, http.StatusOK, signInResponse{
		UserID:    session.Account.UserID,
		Email:     session.Account.Email,
		IsPremium: session.Account.IsPremium,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
	})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Accounts.SignOut(r.Context()); err != nil && !errors.Is(err, accounts.ErrNotSignedIn) {
		h.logger.Warn().Err(err).Msg("Sign-out reported an error")
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- usage ---

type usageResponse struct {
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetsIn  string `json:"resetsIn,omitempty"`
	IsPremium bool   `json:"isPremium"`
}

func (h *Handler) usage(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w)
	if !ok {
		return
	}

	resp := usageResponse{
		Limit:     h.app.Cfg.Quota.FreeTierLimit,
		Remaining: h.app.Tracker.RemainingTasks(account),
		ResetsIn:  h.app.Tracker.TimeUntilReset(account),
		IsPremium: account.IsPremium,
	}
	if record, loaded := h.app.Tracker.Record(); loaded {
		resp.Used = record.TasksUsed
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- tasks ---

type createTaskRequest struct {
	Description string `json:"description"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w)
	if !ok {
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Description == "" {
		writeError(w, http.StatusBadRequest, "task description is required")
		return
	}

	if !h.app.Tracker.CanUseTask(account) {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:    "free tier task limit reached",
			ResetsIn: h.app.Tracker.TimeUntilReset(account),
		})
		return
	}
	allowed, err := h.app.Tracker.IncrementUsage(r.Context(), account)
	if err != nil {
		h.logger.Error().Err(err).Msg("Quota update failed")
		writeError(w, http.StatusServiceUnavailable, "usage tracking unavailable")
		return
	}
	if !allowed {
		writeJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:    "free tier task limit reached",
			ResetsIn: h.app.Tracker.TimeUntilReset(account),
		})
		return
	}

	task := storage.TaskRecord{
		ID:          uuid.NewString(),
		UserID:      account.UserID,
		Description: req.Description,
		Status:      storage.TaskProcessing,
		CreatedAt:   time.Now().UTC(),
	}
	if err := h.app.Store.Tasks().Insert(r.Context(), task); err != nil {
		h.logger.Error().Err(err).Str("taskId", task.ID).Msg("Could not record task")
	}
	metrics.DefaultMetrics.RecordTaskSubmitted()
	h.publishTaskEvent(r, events.EventTaskSubmitted, task, "")

	h.streamExchange(w, r, account, task, req.Description)
}

// streamExchange runs the agent exchange and relays every appended part to
// the client as one ndjson line, then a final task-status line.
func (h *Handler) streamExchange(w http.ResponseWriter, r *http.Request, account accounts.Account, task storage.TaskRecord, description string) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, canFlush := w.(http.Flusher)
	enc := json.NewEncoder(w)

	parts, cancel := h.app.Agent.Subscribe()
	defer cancel()

	type outcome struct {
		msg *agent.Message
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		msg, err := h.app.Agent.Send(r.Context(), description)
		done <- outcome{msg: msg, err: err}
	}()

	writePart := func(ev agent.PartEvent) {
		_ = enc.Encode(ev)
		if canFlush {
			flusher.Flush()
		}
	}

	var result outcome
	for waiting := true; waiting; {
		select {
		case ev := <-parts:
			writePart(ev)
		case result = <-done:
			waiting = false
		}
	}
	// Send has returned; everything appended is already buffered.
	for drained := false; !drained; {
		select {
		case ev := <-parts:
			writePart(ev)
		default:
			drained = true
		}
	}

	now := time.Now().UTC()
	task.CompletedAt = &now
	status := map[string]any{"type": "task-status", "taskId": task.ID}

	if result.err != nil {
		task.Status = storage.TaskFailed
		task.Result = result.err.Error()
		status["status"] = string(storage.TaskFailed)
		status["error"] = "the assistant could not finish this task"
		h.publishTaskEvent(r, events.EventTaskFailed, task, result.err.Error())
	} else {
		task.Status = storage.TaskCompleted
		task.Result = result.msg.Text()
		status["status"] = string(storage.TaskCompleted)
		status["result"] = task.Result
		h.publishTaskEvent(r, events.EventTaskCompleted, task, "")
	}
	if err := h.app.Store.Tasks().Update(r.Context(), task); err != nil {
		h.logger.Error().Err(err).Str("taskId", task.ID).Msg("Could not update task record")
	}

	_ = enc.Encode(status)
	if canFlush {
		flusher.Flush()
	}
}

func (h *Handler) publishTaskEvent(r *http.Request, eventType string, task storage.TaskRecord, errText string) {
	ev := events.TaskEvent{
		EventType:   eventType,
		TaskID:      task.ID,
		UserID:      task.UserID,
		Description: task.Description,
		Result:      task.Result,
		Error:       errText,
		Timestamp:   time.Now().UnixMilli(),
	}
	if err := h.app.Publisher.PublishTask(r.Context(), ev); err != nil {
		h.logger.Warn().Err(err).Str("taskId", task.ID).Msg("Could not publish task event")
	}
}

func (h *Handler) listTasks(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w)
	if !ok {
		return
	}

	tasks, err := h.app.Store.Tasks().ListByUser(r.Context(), account.UserID, 50)
	if err != nil {
		h.logger.Error().Err(err).Msg("Could not list tasks")
		writeError(w, http.StatusServiceUnavailable, "task history unavailable")
		return
	}
	if tasks == nil {
		tasks = []storage.TaskRecord{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

// --- voice ---

func (h *Handler) voicePermissions(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentAccount(w); !ok {
		return
	}
	granted := h.app.Voice.RequestPermissions(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"granted": granted})
}

func (h *Handler) startRecording(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentAccount(w); !ok {
		return
	}

	if err := h.app.Voice.StartRecording(r.Context()); err != nil {
		var rerr *voice.RecordingError
		if errors.As(err, &rerr) && errors.Is(err, voice.ErrCaptureBusy) {
			writeError(w, http.StatusConflict, "a recording is already in progress")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not start recording")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"state": h.app.Voice.State().String()})
}

func (h *Handler) pushChunk(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.currentAccount(w); !ok {
		return
	}

	chunk, err := io.ReadAll(io.LimitReader(r.Body, 4*1024*1024))
	if err != nil || len(chunk) == 0 {
		writeError(w, http.StatusBadRequest, "empty audio chunk")
		return
	}
	if err := h.app.VoiceIn.Push(chunk); err != nil {
		writeError(w, http.StatusConflict, "no recording in progress")
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) stopRecording(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w)
	if !ok {
		return
	}

	artifact, err := h.app.Voice.StopRecording(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not stop recording")
		return
	}

	text, err := h.app.Voice.TranscribeAudio(r.Context(), artifact)
	if err != nil {
		var terr *voice.TranscriptionError
		if errors.As(err, &terr) && terr.Err == nil {
			// Nothing was captured; no provider call was made.
			writeError(w, http.StatusUnprocessableEntity, "no audio captured")
			return
		}
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	ev := events.TranscriptEvent{
		EventType: events.EventVoiceTranscript,
		UserID:    account.UserID,
		Provider:  h.app.Cfg.Transcribe.Provider,
		Text:      text,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := h.app.Publisher.PublishTranscript(r.Context(), ev); err != nil {
		h.logger.Warn().Err(err).Msg("Could not publish transcript event")
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}
