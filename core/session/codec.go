// Package session encodes mixer snapshots into session documents and
// manages them in a SessionStore.
package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"whisperli/model"
)

// ErrInvalidSession is wrapped by every ValidationError.
var ErrInvalidSession = errors.New("invalid session document")

// ValidationError reports a document that cannot be decoded into a session.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid session: %s: %v", e.Reason, e.Err)
	}
	return "invalid session: " + e.Reason
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidSession, e.Err}
	}
	return []error{ErrInvalidSession}
}

// timeNow is swapped in tests.
var timeNow = time.Now

// Encode builds a session document from mixer snapshots. Empty metadata
// fields get defaults: the name is the file stem of name, the description
// counts the tracks and created is the current time.
func Encode(states []model.TrackState, meta model.Metadata, name string) model.Session {
	tracks := make([]model.TrackState, len(states))
	copy(tracks, states)

	if meta.Name == "" {
		meta.Name = Stem(name)
	}
	if meta.Description == "" {
		meta.Description = fmt.Sprintf("Ambient mixer session with %d tracks", len(tracks))
	}
	if meta.Created == "" {
		meta.Created = timeNow().Format(time.RFC3339)
	}
	return model.Session{
		Version:  model.SessionVersion,
		Tracks:   tracks,
		Metadata: meta,
	}
}

// Stem returns the base name of p without its extension.
func Stem(p string) string {
	base := filepath.Base(p)
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Marshal renders s as indented JSON.
func Marshal(s model.Session) ([]byte, error) {
	if s.Tracks == nil {
		s.Tracks = []model.TrackState{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	return data, nil
}

// MarshalYAML renders s as YAML with the same field names as the JSON form.
func MarshalYAML(s model.Session) ([]byte, error) {
	if s.Tracks == nil {
		s.Tracks = []model.TrackState{}
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("marshal session yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal session yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// trackDoc mirrors model.TrackState with optional fields so that missing
// keys can be told apart from zero values.
type trackDoc struct {
	SoundFile    *string `json:"sound_file" yaml:"sound_file"`
	Volume       *int    `json:"volume" yaml:"volume"`
	Loop         *bool   `json:"loop" yaml:"loop"`
	VolumeAuto   *bool   `json:"volume_auto" yaml:"volume_auto"`
	PlaybackAuto *bool   `json:"playback_auto" yaml:"playback_auto"`
	Speed        *int    `json:"speed" yaml:"speed"`
	IntervalType *int    `json:"interval_type" yaml:"interval_type"`
	Interval     *int    `json:"interval" yaml:"interval"`
}

type sessionDoc struct {
	Version  string          `json:"version" yaml:"version"`
	Tracks   *[]trackDoc     `json:"tracks" yaml:"tracks"`
	Metadata *model.Metadata `json:"metadata" yaml:"metadata"`
}

// Decode parses a JSON session document. Unknown fields are ignored and
// missing track fields take their defaults. Sound references are not
// checked.
func Decode(data []byte) (model.Session, error) {
	var doc sessionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.Session{}, &ValidationError{Reason: "malformed document", Err: err}
	}
	return doc.session()
}

// DecodeYAML is Decode for the YAML form.
func DecodeYAML(data []byte) (model.Session, error) {
	var doc sessionDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return model.Session{}, &ValidationError{Reason: "malformed document", Err: err}
	}
	return doc.session()
}

func (d sessionDoc) session() (model.Session, error) {
	if d.Tracks == nil {
		return model.Session{}, &ValidationError{Reason: `missing "tracks"`}
	}
	s := model.Session{
		Version: d.Version,
		Tracks:  make([]model.TrackState, 0, len(*d.Tracks)),
	}
	if s.Version == "" {
		s.Version = model.SessionVersion
	}
	if d.Metadata != nil {
		s.Metadata = *d.Metadata
	}
	for _, t := range *d.Tracks {
		s.Tracks = append(s.Tracks, t.state())
	}
	return s, nil
}

func (t trackDoc) state() model.TrackState {
	s := model.DefaultTrackState("")
	if t.SoundFile != nil {
		s.SoundFile = *t.SoundFile
	}
	if t.Volume != nil {
		s.Volume = *t.Volume
	}
	if t.Loop != nil {
		s.Loop = *t.Loop
	}
	if t.VolumeAuto != nil {
		s.VolumeAuto = *t.VolumeAuto
	}
	if t.PlaybackAuto != nil {
		s.PlaybackAuto = *t.PlaybackAuto
	}
	if t.Speed != nil {
		s.Speed = model.SpeedTier(*t.Speed)
	}
	if t.IntervalType != nil {
		s.IntervalType = model.IntervalMode(*t.IntervalType)
	}
	if t.Interval != nil {
		s.Interval = *t.Interval
	}
	return s
}
