package whatsapp

import (
	"errors"
	"testing"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		// Peru-local mobiles get the country code
		{"9 digits starting with 9", "922023667", "51922023667", false},
		{"9 digits with spaces", "922 023 667", "51922023667", false},
		{"9 digits with dashes", "922-023-667", "51922023667", false},

		// Already international
		{"E.164 with plus and spaces", "+51 922 023 667", "51922023667", false},
		{"11 digits plain", "51922023667", "51922023667", false},
		{"other country", "+54 911 4444 5555", "5491144445555", false},

		// Rejected
		{"empty", "", "", true},
		{"whitespace only", "   ", "", true},
		{"5 digits", "12345", "", true},
		{"9 digits not starting with 9", "822023667", "", true},
		{"letters only", "no-phone", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizePhone(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrNoWhatsAppNumber) {
					t.Fatalf("NormalizePhone(%q) error = %v, want ErrNoWhatsAppNumber", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NormalizePhone(%q): %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestValidMobile(t *testing.T) {
	if !ValidMobile("51922023667") {
		t.Error("expected Peruvian mobile to validate")
	}
	if ValidMobile("1234567890123456") {
		t.Error("expected garbage digits to fail validation")
	}
}
