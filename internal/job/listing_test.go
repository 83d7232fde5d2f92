package job

import "testing"

func TestHashedIdentityIsStable(t *testing.T) {
	a := HashedIdentity("Go Developer", "Acme", "https://acme.example/jobs/1")
	b := HashedIdentity("Go Developer", "Acme", "https://acme.example/jobs/1")
	c := HashedIdentity("Go Developer", "Acme", "https://acme.example/jobs/2")

	if a != b {
		t.Fatalf("identical content must derive identical identities")
	}
	if a == c {
		t.Fatalf("different source URLs must derive different identities")
	}
	if a.Source != HashedSource || a.Ref == "" {
		t.Fatalf("unexpected identity: %+v", a)
	}
}

func TestParseWorkMode(t *testing.T) {
	cases := map[string]WorkMode{
		"remote":   WorkModeRemote,
		"REMOTE":   WorkModeRemote,
		"fullDay":  WorkModeOnsite,
		"hybrid":   WorkModeHybrid,
		"flexible": WorkModeHybrid,
		"whatever": WorkModeUnspecified,
		"":         WorkModeUnspecified,
	}
	for in, want := range cases {
		if got := ParseWorkMode(in); got != want {
			t.Fatalf("ParseWorkMode(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSeniority(t *testing.T) {
	cases := map[string]Seniority{
		"noExperience":    SeniorityIntern,
		"between1And3":    SeniorityJunior,
		"between3And6":    SeniorityMid,
		"moreThan6":       SenioritySenior,
		"lead":            SenioritySenior,
		"principal ninja": SeniorityUnspecified,
	}
	for in, want := range cases {
		if got := ParseSeniority(in); got != want {
			t.Fatalf("ParseSeniority(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestContentEquals(t *testing.T) {
	base := Listing{Title: "Go Developer", Description: "desc", Tags: []string{"go"}}

	same := base
	same.Location = "Berlin"
	if !base.ContentEquals(&same) {
		t.Fatalf("location is not scoring content and must not count as a change")
	}

	retagged := base
	retagged.Tags = []string{"go", "docker"}
	if base.ContentEquals(&retagged) {
		t.Fatalf("a tag change is a content change")
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{" Go ", "go", "PostgreSQL", "", "Docker"})
	want := []string{"docker", "go", "postgresql"}

	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
