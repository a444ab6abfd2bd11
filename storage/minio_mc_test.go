package storage

import "testing"

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
		{3 * 1024 * 1024 * 1024, "3.0 GB"},
	}
	for _, tc := range tests {
		if got := FormatSize(tc.size); got != tc.want {
			t.Fatalf("FormatSize(%d) = %q, want %q", tc.size, got, tc.want)
		}
	}
}

func TestFileExtension(t *testing.T) {
	tests := map[string]string{
		"sessions/night.json": ".json",
		"sessions/README":     "(none)",
		"a/b/Track.MP3":       ".mp3",
	}
	for key, want := range tests {
		if got := fileExtension(key); got != want {
			t.Fatalf("fileExtension(%q) = %q, want %q", key, got, want)
		}
	}
}
