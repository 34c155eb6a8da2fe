package ruledoc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/light-bringer/dynprice-service/internal/app/pricing/domain"
)

// File is the top level of a rule set file.
//
//	rule_sets:
//	  - id: clearance
//	    catalog_id: spring
//	    rules: [...]
type File struct {
	RuleSets []RuleSetDocument `json:"rule_sets" yaml:"rule_sets"`
}

// UnmarshalYAML keeps numbers as written so `value: 0.10` stays exact.
func (d *Decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	if node.Tag == "!!null" {
		*d = ""
		return nil
	}
	*d = Decimal(node.Value)
	return nil
}

// ParseYAML decodes a rule set file. Unknown fields are rejected.
func ParseYAML(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse rule sets: %w", err)
	}
	return f, nil
}

// ParseJSON decodes a rule set file in JSON form.
func ParseJSON(data []byte) (File, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return File{}, fmt.Errorf("parse rule sets: %w", err)
	}
	return f, nil
}

// LoadFile reads a rule set file, picking the decoder from the extension.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// RuleSets converts and fully validates every document in the file.
func (f File) RuleSets() ([]domain.RuleSet, error) {
	sets := make([]domain.RuleSet, 0, len(f.RuleSets))
	seen := make(map[string]struct{}, len(f.RuleSets))
	for _, doc := range f.RuleSets {
		rs, err := doc.ToDomain()
		if err != nil {
			return nil, err
		}
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[rs.ID]; dup {
			return nil, &domain.ValidationError{RuleSetID: rs.ID, Field: "id", Err: fmt.Errorf("duplicate rule set id")}
		}
		seen[rs.ID] = struct{}{}
		sets = append(sets, rs)
	}
	return sets, nil
}
