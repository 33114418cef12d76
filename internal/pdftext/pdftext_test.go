package pdftext

import (
	"strings"
	"testing"
)

func TestExtractRejectsNonPDF(t *testing.T) {
	if _, err := Extract([]byte("this is not a pdf")); err == nil {
		t.Error("expected an error for non-PDF bytes")
	}
	if _, err := Extract(nil); err == nil {
		t.Error("expected an error for empty input")
	}
}

func TestReadable(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"empty", "", false},
		{"too short", "ACME BANK", false},
		{
			"statement text",
			"ACME BANK STATEMENT\n12/03/2024 -450.00 COFFEE SHOP LONDON\n14/03/2024 1,200.00 SALARY",
			true,
		},
		{
			"identity font garbage",
			strings.Repeat("þé§¶Ð", 30),
			false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := readable(tc.text); got != tc.want {
				t.Errorf("readable(%q) = %v, want %v", tc.text, got, tc.want)
			}
		})
	}
}
