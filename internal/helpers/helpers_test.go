package helpers

import (
	"math"
	"testing"
)

func TestClampInt(t *testing.T) {
	tests := []struct {
		name     string
		v        int
		lower    int
		upper    int
		expected int
	}{
		{"within range", 5, 0, 10, 5},
		{"below lower", -5, 0, 10, 0},
		{"above upper", 15, 0, 10, 10},
		{"at lower", 0, 0, 10, 0},
		{"at upper", 10, 0, 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampInt(tt.v, tt.lower, tt.upper); got != tt.expected {
				t.Errorf("ClampInt(%d, %d, %d) = %d, want %d", tt.v, tt.lower, tt.upper, got, tt.expected)
			}
		})
	}
}

func TestClampIntToUint16(t *testing.T) {
	if got := ClampIntToUint16(-1); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ClampIntToUint16(70000); got != math.MaxUint16 {
		t.Errorf("expected %d, got %d", math.MaxUint16, got)
	}
	if got := ClampIntToUint16(1234); got != 1234 {
		t.Errorf("expected 1234, got %d", got)
	}
}

func TestClampIntToUint32(t *testing.T) {
	if got := ClampIntToUint32(-1); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := ClampIntToUint32(42); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}
