package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetType(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"validation", Validation("bad"), ErrorTypeValidation},
		{"configuration", Configurationf("scope %q", "continent"), ErrorTypeConfiguration},
		{"wrapped configuration", fmt.Errorf("generate: %w", WrapConfiguration("schema", errors.New("missing"))), ErrorTypeConfiguration},
		{"not found", NotFoundf("chunk %s", "city:x"), ErrorTypeNotFound},
		{"external", WrapExternal("database ping failed", errors.New("refused")), ErrorTypeExternal},
		{"plain", errors.New("boom"), ErrorTypeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GetType(tc.err); got != tc.want {
				t.Fatalf("GetType: got %s want %s", got, tc.want)
			}
		})
	}
}

func TestAppErrorMessage(t *testing.T) {
	inner := errors.New("connection refused")
	err := WrapInternal("failed to save chunk", inner)
	if err.Error() != "failed to save chunk: connection refused" {
		t.Fatalf("message: %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error to unwrap to inner")
	}
	if Is(nil, ErrorTypeInternal) {
		t.Fatalf("nil error must not match any type")
	}
}
