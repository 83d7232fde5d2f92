package source

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
)

func TestAdzunaMissingCredentials(t *testing.T) {
	a := NewAdzuna("", "", "gb", zap.NewNop())

	_, err := a.Collect(context.Background(), []string{"golang"})
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("missing credentials must classify as blocked, got %v", err)
	}
}

func TestAdzunaDefaultsCountry(t *testing.T) {
	a := NewAdzuna("id", "key", "", zap.NewNop())
	if a.Country != "gb" {
		t.Fatalf("expected default country gb, got %q", a.Country)
	}
}
