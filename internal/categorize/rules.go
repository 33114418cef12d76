package categorize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Rule names a category and the keywords that select it. Rules are applied
// in file order; within a rule, keyword order decides nothing.
type Rule struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type rulesFile struct {
	Categories []Rule `yaml:"categories"`
}

// LoadRules reads category rules from a YAML file:
//
//	categories:
//	  - name: Groceries
//	    keywords: [supermarket, tesco, aldi]
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("categorize: read rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("categorize: parse rules: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("categorize: rules file %s has no categories", path)
	}
	return f.Categories, nil
}

// DefaultRules is the built-in taxonomy used when no rules file is
// configured.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "Salary", Keywords: []string{"salary", "payroll", "wages"}},
		{Name: "Groceries", Keywords: []string{"supermarket", "grocery", "tesco", "sainsbury", "aldi", "lidl", "waitrose", "co-op"}},
		{Name: "Eating Out", Keywords: []string{"restaurant", "cafe", "coffee", "takeaway", "deliveroo", "pizza"}},
		{Name: "Transport", Keywords: []string{"uber", "rail", "train", "bus", "tfl", "fuel", "petrol", "parking"}},
		{Name: "Utilities", Keywords: []string{"electric", "energy", "water", "broadband", "vodafone", "o2 "}},
		{Name: "Housing", Keywords: []string{"rent", "mortgage", "council tax"}},
		{Name: "Entertainment", Keywords: []string{"netflix", "spotify", "cinema", "steam"}},
		{Name: "Health", Keywords: []string{"pharmacy", "boots", "gym", "dental"}},
		{Name: "Transfers", Keywords: []string{"transfer", "standing order"}},
	}
}
