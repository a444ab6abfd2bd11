package session

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"whisperli/model"
)

func fixedNow(t *testing.T) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = prev })
}

func TestEncode_DefaultsMetadata(t *testing.T) {
	fixedNow(t)
	states := []model.TrackState{model.DefaultTrackState("sounds/rain.mp3")}

	s := Encode(states, model.Metadata{}, "sessions/storm.json")
	if s.Version != "1.0" {
		t.Fatalf("version %q", s.Version)
	}
	want := model.Metadata{
		Name:        "storm",
		Created:     "2024-03-01T12:00:00Z",
		Description: "Ambient mixer session with 1 tracks",
	}
	if s.Metadata != want {
		t.Fatalf("metadata %+v, want %+v", s.Metadata, want)
	}

	kept := Encode(states, model.Metadata{Name: "Night", Description: "mine"}, "storm")
	if kept.Metadata.Name != "Night" || kept.Metadata.Description != "mine" {
		t.Fatalf("explicit metadata overwritten: %+v", kept.Metadata)
	}
}

func TestDecode_MissingTracks(t *testing.T) {
	inputs := []string{
		`{"version":"1.0","metadata":{"name":"x"}}`,
		`{"tracks":null}`,
		`[]`,
		`"tracks"`,
		`{"tracks":`,
		`{"tracks":{"sound_file":"rain"}}`,
	}
	for _, in := range inputs {
		_, err := Decode([]byte(in))
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected *ValidationError, got %v", in, err)
		}
		if !errors.Is(err, ErrInvalidSession) {
			t.Fatalf("%s: error does not wrap ErrInvalidSession", in)
		}
	}
}

func TestDecode_FillsDefaults(t *testing.T) {
	data := `{
	  "tracks": [
	    {"sound_file": "rain.mp3"},
	    {"sound_file": "wind.ogg", "volume": 0, "loop": false, "speed": 2, "interval_type": 1, "interval": 90, "extra": true}
	  ],
	  "unknown": 1
	}`
	s, err := Decode([]byte(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if s.Version != model.SessionVersion {
		t.Fatalf("version %q", s.Version)
	}
	if got, want := s.Tracks[0], model.DefaultTrackState("rain.mp3"); got != want {
		t.Fatalf("defaults\n got %+v\nwant %+v", got, want)
	}
	want := model.TrackState{
		SoundFile:    "wind.ogg",
		Volume:       0,
		Loop:         false,
		Speed:        model.SpeedFast,
		IntervalType: model.IntervalRandom,
		Interval:     90,
	}
	if s.Tracks[1] != want {
		t.Fatalf("explicit values\n got %+v\nwant %+v", s.Tracks[1], want)
	}
}

func TestDecode_EmptyTracks(t *testing.T) {
	s, err := Decode([]byte(`{"tracks":[]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(s.Tracks) != 0 {
		t.Fatalf("expected no tracks, got %d", len(s.Tracks))
	}
}

func TestMarshalDecode_RoundTrip(t *testing.T) {
	fixedNow(t)
	states := []model.TrackState{
		model.DefaultTrackState("rain.mp3"),
		{SoundFile: "fire.wav", Volume: 35, VolumeAuto: true, PlaybackAuto: true, Speed: model.SpeedSlow, IntervalType: model.IntervalRandom, Interval: 7},
	}
	s := Encode(states, model.Metadata{}, "evening")

	data, err := Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("JSON round trip\n got %+v\nwant %+v", got, s)
	}

	ydata, err := MarshalYAML(s)
	if err != nil {
		t.Fatalf("MarshalYAML: %v", err)
	}
	got, err = DecodeYAML(ydata)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Fatalf("YAML round trip\n got %+v\nwant %+v", got, s)
	}
}

func TestDecodeYAML_Defaults(t *testing.T) {
	s, err := DecodeYAML([]byte("tracks:\n  - sound_file: rain.mp3\n    volume: 70\n"))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	want := model.DefaultTrackState("rain.mp3")
	want.Volume = 70
	if s.Tracks[0] != want {
		t.Fatalf("got %+v, want %+v", s.Tracks[0], want)
	}

	if _, err := DecodeYAML([]byte("metadata:\n  name: x\n")); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}
}

func TestStem(t *testing.T) {
	tests := map[string]string{
		"storm":                     "storm",
		"storm.json":                "storm",
		"/home/u/sessions/a.b.json": "a.b",
		"":                          "",
	}
	for in, want := range tests {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}
