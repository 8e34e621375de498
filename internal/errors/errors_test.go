package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: "",
		},
		{
			name:     "simple error",
			err:      errors.New("something went wrong"),
			expected: "Error: something went wrong",
		},
		{
			name:     "validation error",
			err:      Validation(MsgContentEmpty),
			expected: "Error: content must not be empty",
		},
		{
			name:     "store error hides cause",
			err:      Store("save diary", errors.New("disk I/O error")),
			expected: "Error: failed to save diary",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.err)
			if result != tt.expected {
				t.Errorf("Format(%v) = %q, want %q", tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatf(t *testing.T) {
	got := Formatf("medication %d not found", 42)
	if got != "Error: medication 42 not found" {
		t.Errorf("Formatf() = %q", got)
	}
}

func TestKindOf(t *testing.T) {
	cause := errors.New("constraint failed")
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"plain error", cause, ""},
		{"validation", Validation(MsgContentTooLong), KindValidation},
		{"not found", NotFound("medication", 3), KindNotFound},
		{"conflict", Conflict(MsgDuplicateMedication), KindConflict},
		{"store", Store("update medication", cause), KindStore},
		{"unavailable", Unavailable(MsgRepositoryClosed), KindUnavailable},
		{"wrapped", fmt.Errorf("consume: %w", NotFound("medication", 9)), KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsAndUnwrap(t *testing.T) {
	cause := errors.New("database is locked")
	err := Store("consume medication", cause)

	if !Is(err, KindStore) {
		t.Error("Is(err, KindStore) = false, want true")
	}
	if Is(err, KindValidation) {
		t.Error("Is(err, KindValidation) = true, want false")
	}
	if Is(nil, KindStore) {
		t.Error("Is(nil, KindStore) = true, want false")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("diary", 12)
	if err.Error() != "diary 12 not found" {
		t.Errorf("NotFound message = %q", err.Error())
	}
}
