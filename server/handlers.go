package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"whisperli/core/mixer"
	"whisperli/core/scheduler"
	"whisperli/core/session"
	"whisperli/logger"
	"whisperli/model"
)

// maxBody bounds every JSON request body.
const maxBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("failed to write response", logger.ErrorField(err))
	}
}

// decodeJSON reads the body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var verr *session.ValidationError
	switch {
	case errors.Is(err, mixer.ErrDuplicateTrack):
		return http.StatusConflict
	case errors.Is(err, mixer.ErrTrackNotFound), errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, mixer.ErrAssetMissing), errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrInvalidName), errors.Is(err, session.ErrNothingToSave):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", requestID(r)),
			logger.ErrorField(err))
	}
	http.Error(w, err.Error(), status)
}

func requestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

// withMixer runs f on the mixer loop and reports loop failures.
func (s *Server) withMixer(w http.ResponseWriter, r *http.Request, f func(m *mixer.Mixer)) bool {
	if err := s.app.Do(r.Context(), f); err != nil {
		writeError(w, r, err)
		return false
	}
	return true
}

type trackRequest struct {
	SoundFile string `json:"sound_file"`
}

// stateRequest changes only the fields that are present.
type stateRequest struct {
	SoundFile    string              `json:"sound_file"`
	Volume       *int                `json:"volume"`
	Loop         *bool               `json:"loop"`
	VolumeAuto   *bool               `json:"volume_auto"`
	PlaybackAuto *bool               `json:"playback_auto"`
	Speed        *model.SpeedTier    `json:"speed"`
	IntervalType *model.IntervalMode `json:"interval_type"`
	Interval     *int                `json:"interval"`
	Playing      *bool               `json:"playing"`
}

// apply sets loop before playback automation so that enabling both leaves
// automation on, and automation before volume so the band clamp applies.
func (req stateRequest) apply(t *mixer.Track) {
	if req.Speed != nil {
		t.SetSpeedTier(*req.Speed)
	}
	if req.IntervalType != nil {
		t.SetIntervalMode(*req.IntervalType)
	}
	if req.Interval != nil {
		t.SetInterval(*req.Interval)
	}
	if req.Loop != nil {
		t.SetLoop(*req.Loop)
	}
	if req.PlaybackAuto != nil {
		t.SetPlaybackAutomation(*req.PlaybackAuto)
	}
	if req.VolumeAuto != nil {
		t.SetVolumeAutomation(*req.VolumeAuto)
	}
	if req.Volume != nil {
		t.SetVolume(*req.Volume)
	}
	if req.Playing != nil {
		if *req.Playing {
			t.Start()
		} else {
			t.Pause()
		}
	}
}

// ListTracksHandler returns every track in mixer order.
func (s *Server) ListTracksHandler(w http.ResponseWriter, r *http.Request) {
	var statuses []mixer.Status
	if !s.withMixer(w, r, func(m *mixer.Mixer) { statuses = m.Statuses() }) {
		return
	}
	if statuses == nil {
		statuses = []mixer.Status{}
	}
	writeJSON(w, http.StatusOK, statuses)
}

// AddTrackHandler adds a sound with default settings.
func (s *Server) AddTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var status mixer.Status
	var addErr error
	ok := s.withMixer(w, r, func(m *mixer.Mixer) {
		t, err := m.Add(req.SoundFile)
		if err != nil {
			addErr = err
			return
		}
		status = mixer.Status{TrackState: t.State(), Playing: t.Playing()}
	})
	if !ok {
		return
	}
	if addErr != nil {
		writeError(w, r, addErr)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

// RemoveTrackHandler removes the track named by the ref query parameter.
func (s *Server) RemoveTrackHandler(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	if ref == "" {
		http.Error(w, "Missing 'ref' query parameter", http.StatusBadRequest)
		return
	}
	var removeErr error
	if !s.withMixer(w, r, func(m *mixer.Mixer) { removeErr = m.Remove(ref) }) {
		return
	}
	if removeErr != nil {
		writeError(w, r, removeErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateTrackHandler applies a partial state change to one track.
func (s *Server) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req stateRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.updateTrack(w, r, req.SoundFile, req.apply)
}

// ToggleTrackHandler flips the play/pause intent of one track.
func (s *Server) ToggleTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req trackRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	s.updateTrack(w, r, req.SoundFile, (*mixer.Track).TogglePlayback)
}

func (s *Server) updateTrack(w http.ResponseWriter, r *http.Request, ref string, f func(t *mixer.Track)) {
	var status mixer.Status
	found := false
	ok := s.withMixer(w, r, func(m *mixer.Mixer) {
		t, exists := m.Get(ref)
		if !exists {
			return
		}
		found = true
		f(t)
		status = mixer.Status{TrackState: t.State(), Playing: t.Playing()}
	})
	if !ok {
		return
	}
	if !found {
		writeError(w, r, mixer.ErrTrackNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// PlayAllHandler starts every paused track.
func (s *Server) PlayAllHandler(w http.ResponseWriter, r *http.Request) {
	var started int
	if !s.withMixer(w, r, func(m *mixer.Mixer) { started = m.PlayAll() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"started": started})
}

// ClearHandler removes every track.
func (s *Server) ClearHandler(w http.ResponseWriter, r *http.Request) {
	var removed int
	if !s.withMixer(w, r, func(m *mixer.Mixer) { removed = m.Clear() }) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}
