package categorize

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/nkoval/finledger/internal/ingest"
)

type fakeModel struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeModel) GenerateContent(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func candidates(descriptions ...string) []ingest.Candidate {
	out := make([]ingest.Candidate, len(descriptions))
	for i, d := range descriptions {
		out[i] = ingest.Candidate{TempID: i + 1, Description: d}
	}
	return out
}

func TestSuggestKeywordMatch(t *testing.T) {
	e := NewEngine(DefaultRules(), nil, zerolog.Nop())

	got := e.Suggest(context.Background(), candidates(
		"TESCO STORES 3027",
		"Netflix.com",
		"ACME PAYROLL FEB",
		"COMPLETELY OPAQUE 123",
	))

	want := []string{"Groceries", "Entertainment", "Salary", ""}
	for i, w := range want {
		if got[i].Category != w {
			t.Errorf("candidate %d category = %q, want %q", i+1, got[i].Category, w)
		}
	}
}

func TestSuggestFirstRuleWins(t *testing.T) {
	rules := []Rule{
		{Name: "First", Keywords: []string{"shop"}},
		{Name: "Second", Keywords: []string{"coffee"}},
	}
	e := NewEngine(rules, nil, zerolog.Nop())

	got := e.Suggest(context.Background(), candidates("COFFEE SHOP"))
	if got[0].Category != "First" {
		t.Errorf("category = %q, want First (rule order decides)", got[0].Category)
	}
}

func TestSuggestKeepsExistingCategory(t *testing.T) {
	e := NewEngine(DefaultRules(), nil, zerolog.Nop())

	in := candidates("TESCO STORES")
	in[0].Category = "Manual Override"
	got := e.Suggest(context.Background(), in)
	if got[0].Category != "Manual Override" {
		t.Errorf("category = %q, existing value must be kept", got[0].Category)
	}
}

func TestSuggestModelFallback(t *testing.T) {
	model := &fakeModel{response: "```json\n[{\"temp_id\": 2, \"category\": \"Health\"}]\n```"}
	e := NewEngine(DefaultRules(), model, zerolog.Nop())

	got := e.Suggest(context.Background(), candidates("TESCO STORES", "DR SMITH CLINIC"))

	if got[0].Category != "Groceries" {
		t.Errorf("keyword candidate category = %q, want Groceries", got[0].Category)
	}
	if got[1].Category != "Health" {
		t.Errorf("model candidate category = %q, want Health", got[1].Category)
	}
	if len(model.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(model.prompts))
	}
}

func TestSuggestModelNotCalledWhenAllMatched(t *testing.T) {
	model := &fakeModel{response: "[]"}
	e := NewEngine(DefaultRules(), model, zerolog.Nop())

	e.Suggest(context.Background(), candidates("TESCO STORES"))
	if len(model.prompts) != 0 {
		t.Errorf("model called %d times for fully matched batch, want 0", len(model.prompts))
	}
}

func TestSuggestModelErrorIsAdvisory(t *testing.T) {
	model := &fakeModel{err: errors.New("quota exceeded")}
	e := NewEngine(DefaultRules(), model, zerolog.Nop())

	got := e.Suggest(context.Background(), candidates("OPAQUE THING"))
	if got[0].Category != "" {
		t.Errorf("category = %q, want empty after model failure", got[0].Category)
	}
}

func TestSuggestRejectsInventedCategory(t *testing.T) {
	model := &fakeModel{response: `[{"temp_id": 1, "category": "Cryptocurrency Schemes"}]`}
	e := NewEngine(DefaultRules(), model, zerolog.Nop())

	got := e.Suggest(context.Background(), candidates("OPAQUE THING"))
	if got[0].Category != "" {
		t.Errorf("category = %q, invented categories must be dropped", got[0].Category)
	}
}

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := "categories:\n" +
		"  - name: Coffee\n" +
		"    keywords: [espresso, latte]\n" +
		"  - name: Books\n" +
		"    keywords: [bookstore]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 || rules[0].Name != "Coffee" || len(rules[0].Keywords) != 2 {
		t.Errorf("rules = %+v", rules)
	}
}

func TestLoadRulesErrors(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(empty, []byte("categories: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(empty); err == nil {
		t.Error("expected error for empty rules")
	}
}

func TestCleanModelJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", `[{"a":1}]`, `[{"a":1}]`},
		{"fenced", "```json\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"fenced no lang", "```\n[]\n```", "[]"},
		{"prose around", "Here you go:\n[1,2]\nHope that helps!", "[1,2]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := cleanModelJSON(tc.raw); got != tc.want {
				t.Errorf("cleanModelJSON(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}
