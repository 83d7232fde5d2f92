package textutil

import "testing"

func TestFold(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"São Paulo", "sao paulo"},
		{"Développeur", "developpeur"},
		{"GOLANG", "golang"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := Fold(tc.in); got != tc.want {
			t.Fatalf("Fold(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeKeepsTechTerms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Senior C++ / C# Developer!", "senior c++ c# developer"},
		{"Node.js,   React", "node.js react"},
		{"  Go\t(Golang) ", "go golang"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestContainsPhrase(t *testing.T) {
	text := Normalize("We build REST APIs in Go and JavaScript")

	cases := []struct {
		phrase string
		want   bool
	}{
		{"go", true},
		{"java", false},
		{"javascript", true},
		{"rest apis", true},
		{"rest api", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := ContainsPhrase(text, Normalize(tc.phrase)); got != tc.want {
			t.Fatalf("ContainsPhrase(%q) = %v, want %v", tc.phrase, got, tc.want)
		}
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Développeur Go à Paris", "developpeur go") {
		t.Fatalf("expected accent-insensitive substring match")
	}
	if ContainsFold("Go Developer", "rust") {
		t.Fatalf("unexpected match")
	}
}
