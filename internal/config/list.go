// ABOUTME: List is a string list settable from a YAML/TOML sequence or a comma-separated string
// ABOUTME: Empty input yields nil, which callers treat as "no restriction"

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// List holds a comma-separated setting.
type List []string

// SplitList splits s on commas and trims each item. Empty items are dropped
// and an empty result is nil.
func SplitList(s string) List {
	var out List
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (l *List) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = SplitList(node.Value)
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = SplitList(strings.Join(items, ","))
		return nil
	default:
		return fmt.Errorf("line %d: expected a list or a comma-separated string", node.Line)
	}
}

func (l *List) UnmarshalTOML(v any) error {
	switch value := v.(type) {
	case string:
		*l = SplitList(value)
		return nil
	case []any:
		items := make([]string, 0, len(value))
		for _, item := range value {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("expected string list item, got %T", item)
			}
			items = append(items, s)
		}
		*l = SplitList(strings.Join(items, ","))
		return nil
	default:
		return fmt.Errorf("expected a list or a comma-separated string, got %T", v)
	}
}
