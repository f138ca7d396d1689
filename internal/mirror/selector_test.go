package mirror

import (
	"testing"

	"github.com/szaher/credprops/internal/settings"
)

func TestMatchPattern(t *testing.T) {
	central := &settings.Repository{ID: "central", URL: "https://repo.maven.apache.org/maven2"}
	local := &settings.Repository{ID: "local", URL: "http://localhost:8081/repo"}
	files := &settings.Repository{ID: "files", URL: "file:///srv/repo"}
	plainHTTP := &settings.Repository{ID: "legacy", URL: "http://repo.example.com/maven"}

	tests := []struct {
		name    string
		repo    *settings.Repository
		pattern string
		want    bool
	}{
		{name: "wildcard", repo: central, pattern: "*", want: true},
		{name: "exact id", repo: central, pattern: "central", want: true},
		{name: "other id", repo: central, pattern: "snapshots", want: false},
		{name: "list", repo: central, pattern: "snapshots, central", want: true},
		{name: "exclusion", repo: central, pattern: "*,!central", want: false},
		{name: "exclusion of other", repo: central, pattern: "*,!snapshots", want: true},
		{name: "external remote", repo: central, pattern: "external:*", want: true},
		{name: "external localhost", repo: local, pattern: "external:*", want: false},
		{name: "external file", repo: files, pattern: "external:*", want: false},
		{name: "external http on https", repo: central, pattern: "external:http:*", want: false},
		{name: "external http", repo: plainHTTP, pattern: "external:http:*", want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MatchPattern(tc.repo, tc.pattern); got != tc.want {
				t.Errorf("MatchPattern(%s, %q) = %v, want %v", tc.repo.ID, tc.pattern, got, tc.want)
			}
		})
	}
}

func TestMatchesLayout(t *testing.T) {
	tests := []struct {
		layout, pattern string
		want            bool
	}{
		{"default", "", true},
		{"default", "*", true},
		{"default", "default", true},
		{"legacy", "default", false},
		{"legacy", "default,legacy", true},
		{"legacy", "*,!legacy", false},
	}
	for _, tc := range tests {
		if got := MatchesLayout(tc.layout, tc.pattern); got != tc.want {
			t.Errorf("MatchesLayout(%q, %q) = %v, want %v", tc.layout, tc.pattern, got, tc.want)
		}
	}
}

func TestDefaultSelector_ExactIDBeatsWildcard(t *testing.T) {
	mirrors := []settings.Mirror{
		{ID: "all", URL: "http://all", MirrorOf: "*"},
		{ID: "central-only", URL: "http://central", MirrorOf: "central"},
	}
	repo := &settings.Repository{ID: "central", URL: "https://repo.maven.apache.org/maven2"}

	m := DefaultSelector{}.Select(repo, mirrors)
	if m == nil || m.ID != "central-only" {
		t.Fatalf("selected %+v, want central-only", m)
	}
}

func TestDefaultSelector_FirstPatternWins(t *testing.T) {
	mirrors := []settings.Mirror{
		{ID: "first", URL: "http://first", MirrorOf: "external:*"},
		{ID: "second", URL: "http://second", MirrorOf: "*"},
	}
	repo := &settings.Repository{ID: "x", URL: "https://example.com"}

	if m := (DefaultSelector{}).Select(repo, mirrors); m == nil || m.ID != "first" {
		t.Fatalf("selected %+v, want first", m)
	}
}

func TestDefaultSelector_NoMatch(t *testing.T) {
	mirrors := []settings.Mirror{{ID: "m", URL: "http://m", MirrorOf: "other"}}
	repo := &settings.Repository{ID: "central", URL: "https://repo"}

	if m := (DefaultSelector{}).Select(repo, mirrors); m != nil {
		t.Errorf("selected %+v, want nil", m)
	}
	if m := (DefaultSelector{}).Select(repo, nil); m != nil {
		t.Errorf("selected %+v with no mirrors", m)
	}
}

func TestDefaultSelector_LayoutFilter(t *testing.T) {
	mirrors := []settings.Mirror{{ID: "m", URL: "http://m", MirrorOf: "*", MirrorOfLayouts: "default"}}
	repo := &settings.Repository{ID: "old", URL: "https://repo", Layout: "legacy"}

	if m := (DefaultSelector{}).Select(repo, mirrors); m != nil {
		t.Errorf("selected %+v for a legacy repository", m)
	}
}
