package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "message only",
			err:  &Error{Type: ErrorTypeEmpty, Message: "no anchors parsed from x.md"},
			want: "no anchors parsed from x.md",
		},
		{
			name: "record appended when not in message",
			err:  &Error{Type: ErrorTypeGate, Message: "gate id field missing VR-XXX value", Record: "VR-001"},
			want: "gate id field missing VR-XXX value (record VR-001)",
		},
		{
			name: "record not repeated",
			err:  &Error{Type: ErrorTypeDuplicate, Message: "duplicate anchor id: Anchor-001", Record: "Anchor-001"},
			want: "duplicate anchor id: Anchor-001",
		},
		{
			name: "source appended",
			err:  &Error{Type: ErrorTypeStructural, Message: "anchor Anchor-001 missing title", Source: "ANCHORS.md"},
			want: "anchor Anchor-001 missing title in ANCHORS.md",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(ErrorTypeReference, "anchor %s contract ref not found: %s", "Anchor-007", "§9.9")
	if err.Type != ErrorTypeReference {
		t.Errorf("Type = %v", err.Type)
	}
	if !strings.Contains(err.Message, "Anchor-007") || !strings.Contains(err.Message, "§9.9") {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestIsType(t *testing.T) {
	err := New(ErrorTypeDuplicate, "duplicate anchor id: Anchor-001")
	if !IsType(err, ErrorTypeDuplicate) {
		t.Error("IsType() = false for matching type")
	}
	if IsType(err, ErrorTypeReference) {
		t.Error("IsType() = true for different type")
	}
	if IsType(errors.New("plain"), ErrorTypeDuplicate) {
		t.Error("IsType() = true for non-kernel error")
	}
	if IsType(nil, ErrorTypeDuplicate) {
		t.Error("IsType() = true for nil")
	}
}
