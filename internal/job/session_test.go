package job

import (
	"testing"
	"time"
)

func TestFinalizeStatuses(t *testing.T) {
	cases := []struct {
		name    string
		sources []SourceOutcome
		saved   int
		want    SessionStatus
	}{
		{
			name:    "all succeeded",
			sources: []SourceOutcome{{Source: "a"}, {Source: "b"}},
			saved:   10,
			want:    SessionComplete,
		},
		{
			name:    "one failed",
			sources: []SourceOutcome{{Source: "a"}, {Source: "b", Error: "down"}},
			saved:   5,
			want:    SessionPartial,
		},
		{
			name:    "all failed",
			sources: []SourceOutcome{{Source: "a", Error: "down"}, {Source: "b", Error: "down"}},
			saved:   0,
			want:    SessionFailed,
		},
		{
			name:    "succeeded but nothing usable",
			sources: []SourceOutcome{{Source: "a"}},
			saved:   0,
			want:    SessionFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewSession([]string{"go"}, time.Now())
			s.Sources = tc.sources
			s.Finalize(tc.saved, time.Now())

			if s.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, s.Status)
			}
			if !s.Finalized() {
				t.Fatalf("expected a terminal status")
			}
		})
	}
}

func TestFinalizeIsTerminal(t *testing.T) {
	now := time.Now()
	s := NewSession(nil, now)
	s.Sources = []SourceOutcome{{Source: "a"}}

	s.Finalize(3, now)
	if s.Status != SessionComplete {
		t.Fatalf("expected complete, got %s", s.Status)
	}

	// A second finalization must not revise the verdict.
	s.Sources[0].Error = "late failure"
	s.Finalize(0, now.Add(time.Hour))
	if s.Status != SessionComplete {
		t.Fatalf("finalization must be terminal, got %s", s.Status)
	}
	if !s.FinishedAt.Equal(now) {
		t.Fatalf("finish time must not move on a finalized session")
	}
}
