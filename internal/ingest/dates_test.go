package ingest

import (
	"testing"

	"cloud.google.com/go/civil"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  civil.Date
	}{
		{"day first slashes", "31/01/2024", civil.Date{Year: 2024, Month: 1, Day: 31}},
		{"day first dashes", "31-01-2024", civil.Date{Year: 2024, Month: 1, Day: 31}},
		{"day first short year", "5/3/24", civil.Date{Year: 2024, Month: 3, Day: 5}},
		{"day first single digits", "1-2-2023", civil.Date{Year: 2023, Month: 2, Day: 1}},
		{"iso", "2024-01-31", civil.Date{Year: 2024, Month: 1, Day: 31}},
		{"iso single digit month", "2024-3-5", civil.Date{Year: 2024, Month: 3, Day: 5}},
		{"named month", "31 Jan 2024", civil.Date{Year: 2024, Month: 1, Day: 31}},
		{"named month dashes", "31-Jan-2024", civil.Date{Year: 2024, Month: 1, Day: 31}},
		{"named month full", "15 September 2023", civil.Date{Year: 2023, Month: 9, Day: 15}},
		{"named month short year", "3 mar 24", civil.Date{Year: 2024, Month: 3, Day: 3}},
		{"named month abbreviated dot", "12 Sep. 2024", civil.Date{Year: 2024, Month: 9, Day: 12}},
		{"timestamp", "2024-06-01T09:30:00Z", civil.Date{Year: 2024, Month: 6, Day: 1}},
		{"prose us style", "Jan 2, 2024", civil.Date{Year: 2024, Month: 1, Day: 2}},
		{"iso slashes", "2024/03/01", civil.Date{Year: 2024, Month: 3, Day: 1}},
		{"padded", "  31/01/2024  ", civil.Date{Year: 2024, Month: 1, Day: 31}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := normalizeDate(tc.input)
			if !ok {
				t.Fatalf("normalizeDate(%q) not ok", tc.input)
			}
			if got != tc.want {
				t.Errorf("normalizeDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeDateRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"blank", "   "},
		{"not a date", "OPENING BALANCE"},
		{"feb 31", "31/02/2024"},
		{"feb 30 iso", "2024-02-30"},
		{"month 13", "05/13/2024"},
		{"day zero", "0/1/2024"},
		{"named month feb 30", "30 Feb 2024"},
		{"unknown month name", "12 Xyz 2024"},
		{"bare number", "450.00"},
		{"partial date", "03/2024"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got, ok := normalizeDate(tc.input); ok {
				t.Errorf("normalizeDate(%q) = %v, want rejection", tc.input, got)
			}
		})
	}
}

func TestNormalizeDateDayFirstNotMonthFirst(t *testing.T) {
	got, ok := normalizeDate("02/03/2024")
	if !ok {
		t.Fatal("normalizeDate(02/03/2024) not ok")
	}
	want := civil.Date{Year: 2024, Month: 3, Day: 2}
	if got != want {
		t.Errorf("got %v, want %v (day before month)", got, want)
	}
}

func TestNormalizeDateTwoDigitYearWindow(t *testing.T) {
	got, ok := normalizeDate("01/01/99")
	if !ok {
		t.Fatal("normalizeDate(01/01/99) not ok")
	}
	if got.Year != 2099 {
		t.Errorf("two-digit year 99 mapped to %d, want 2099", got.Year)
	}
}
