package ingest

import (
	"testing"

	"cloud.google.com/go/civil"

	"github.com/nkoval/finledger/internal/ledger"
)

func TestExtractFreeTextDateFirst(t *testing.T) {
	text := "ACME BANK STATEMENT\n" +
		"Period: 01/03/2024 to 31/03/2024\n" +
		"12/03/2024 -450.00 COFFEE SHOP LONDON\n" +
		"2024-03-14 1,200.00 SALARY MARCH\n" +
		"Page 1 of 2\n"

	res := ExtractFreeText(text)
	if len(res.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(res.Candidates))
	}

	first := res.Candidates[0]
	if want := (civil.Date{Year: 2024, Month: 3, Day: 12}); first.Date != want {
		t.Errorf("date = %v, want %v", first.Date, want)
	}
	if first.Amount.String() != "450" || first.Direction != ledger.DirectionExpense {
		t.Errorf("amount/direction = %s/%s, want 450/expense", first.Amount.String(), first.Direction)
	}
	if first.Description != "COFFEE SHOP LONDON" {
		t.Errorf("description = %q", first.Description)
	}

	second := res.Candidates[1]
	if second.Amount.String() != "1200" || second.Direction != ledger.DirectionIncome {
		t.Errorf("amount/direction = %s/%s, want 1200/income", second.Amount.String(), second.Direction)
	}
}

func TestExtractFreeTextNamedMonthDate(t *testing.T) {
	res := ExtractFreeText("15 Mar 2024 300.00 PAYROLL CREDIT\n")
	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(res.Candidates))
	}
	c := res.Candidates[0]
	if want := (civil.Date{Year: 2024, Month: 3, Day: 15}); c.Date != want {
		t.Errorf("date = %v, want %v", c.Date, want)
	}
	if c.Description != "PAYROLL CREDIT" {
		t.Errorf("description = %q", c.Description)
	}
}

func TestExtractFreeTextTrailingDate(t *testing.T) {
	res := ExtractFreeText("GROCERY STORE OSLO -89.90 05/03/2024\n")
	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(res.Candidates))
	}
	c := res.Candidates[0]
	if c.Description != "GROCERY STORE OSLO" {
		t.Errorf("description = %q, want GROCERY STORE OSLO", c.Description)
	}
	if want := (civil.Date{Year: 2024, Month: 3, Day: 5}); c.Date != want {
		t.Errorf("date = %v, want %v", c.Date, want)
	}
	if c.Direction != ledger.DirectionExpense {
		t.Errorf("direction = %s, want expense", c.Direction)
	}
}

func TestExtractFreeTextCascadeIsOrdered(t *testing.T) {
	// Matches both the date-first and date-last shapes; date-first is
	// declared earlier and must win, so the trailing token is description.
	res := ExtractFreeText("12/03/2024 500 14/03/2024\n")
	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(res.Candidates))
	}
	c := res.Candidates[0]
	if want := (civil.Date{Year: 2024, Month: 3, Day: 12}); c.Date != want {
		t.Errorf("date = %v, want %v (first pattern must win)", c.Date, want)
	}
	if c.Description != "14/03/2024" {
		t.Errorf("description = %q, want the trailing token", c.Description)
	}
}

func TestExtractFreeTextSkipsInvalidLines(t *testing.T) {
	text := "31/02/2024 100.00 IMPOSSIBLE DATE\n" +
		"12/03/2024 0.00 ZERO AMOUNT\n" +
		"TOTAL 4,500.00\n" +
		"12/03/2024 80.00 KEPT\n"

	res := ExtractFreeText(text)
	if len(res.Candidates) != 1 {
		t.Fatalf("got %d candidates, want 1", len(res.Candidates))
	}
	if res.Candidates[0].Description != "KEPT" {
		t.Errorf("survivor = %q", res.Candidates[0].Description)
	}
	if res.Skipped != 3 {
		t.Errorf("skipped = %d, want 3", res.Skipped)
	}
	if res.Candidates[0].TempID != 1 {
		t.Errorf("temp id = %d, want 1", res.Candidates[0].TempID)
	}
}
