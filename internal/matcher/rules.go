package matcher

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Rules holds the kind-indicative tokens used to disambiguate candidates.
// Tokens are compared after normalization, so "Bill of Lading" and
// "billoflading" are the same token.
type Rules struct {
	BLTokens      []string `yaml:"bl_tokens"`
	InvoiceTokens []string `yaml:"invoice_tokens"`
}

func DefaultRules() Rules {
	return Rules{
		BLTokens:      []string{"bl", "billoflading", "bol"},
		InvoiceTokens: []string{"invoice", "inv"},
	}
}

// LoadRules reads a YAML rules file. Token lists left out of the file keep
// their defaults.
func LoadRules(filePath string) (Rules, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return Rules{}, err
	}
	defer file.Close()

	return LoadRulesFromReader(file)
}

func LoadRulesFromReader(r io.Reader) (Rules, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Rules{}, err
	}

	var loaded Rules
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return Rules{}, fmt.Errorf("parse match rules: %w", err)
	}

	rules := DefaultRules()
	if len(loaded.BLTokens) > 0 {
		rules.BLTokens = loaded.BLTokens
	}
	if len(loaded.InvoiceTokens) > 0 {
		rules.InvoiceTokens = loaded.InvoiceTokens
	}
	return rules.normalized(), nil
}

func (r Rules) normalized() Rules {
	return Rules{
		BLTokens:      normalizeTokens(r.BLTokens),
		InvoiceTokens: normalizeTokens(r.InvoiceTokens),
	}
}

func normalizeTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		n := Normalize(t)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
