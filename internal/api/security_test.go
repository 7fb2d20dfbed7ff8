package api

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"6f1c2a8e-3b7d-4c1e-9a55-2f0e8d9b1c44", false},
		{"legacy_id-1", false},
		{"", true},
		{"../etc", true},
		{"a b", true},
		{"a.png", true},
		{strings.Repeat("a", MaxIDLength), false},
		{strings.Repeat("a", MaxIDLength+1), true},
	}
	for _, tt := range tests {
		err := ValidateID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateID(%q) = %v, wantErr %v", tt.id, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidID) {
			t.Errorf("ValidateID(%q) error %v does not wrap ErrInvalidID", tt.id, err)
		}
	}
}
