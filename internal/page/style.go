package page

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is a single CSS rule: a selector and its declaration block
// (without the surrounding braces).
type Rule struct {
	Selector     string
	Declarations string
}

// Stylesheet is an ordered set of CSS rules.
// Order matters for the cascade, so it is kept as a slice rather than a map.
type Stylesheet []Rule

// String renders the rules as Selector{Declarations}, in order, with no separators.
func (s Stylesheet) String() string {
	var b strings.Builder
	for _, r := range s {
		b.WriteString(r.Selector)
		b.WriteByte('{')
		b.WriteString(r.Declarations)
		b.WriteByte('}')
	}
	return b.String()
}

// Lookup returns the declarations of the first rule with the given selector.
func (s Stylesheet) Lookup(selector string) (string, bool) {
	for _, r := range s {
		if r.Selector == selector {
			return r.Declarations, true
		}
	}
	return "", false
}

// UnmarshalYAML decodes a mapping of selector -> declarations, keeping key order.
func (s *Stylesheet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("stylesheet must be a mapping of selector to declarations (line %d)", node.Line)
	}

	rules := make(Stylesheet, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return fmt.Errorf("declarations for selector %q must be a string (line %d)", key.Value, val.Line)
		}
		rules = append(rules, Rule{Selector: key.Value, Declarations: val.Value})
	}

	*s = rules
	return nil
}

// MarshalYAML encodes the stylesheet as an ordered mapping.
func (s Stylesheet) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, r := range s {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: r.Selector},
			&yaml.Node{Kind: yaml.ScalarNode, Value: r.Declarations},
		)
	}
	return node, nil
}

// DefaultStylesheet returns the stylesheet served by the device firmware.
// Selectors keep their trailing spaces so the rendered sheet matches
// what deployed clients already receive.
func DefaultStylesheet() Stylesheet {
	return Stylesheet{
		{"body", "max-width:65%;margin:0 auto;font-family:Arial, sans-serif;font-size:100%;background-color:#f0f8ff; color:#333;"},
		{"ul", "list-style-type:none;padding:0;border-radius:0.5em;overflow:hidden;background-color:#1e90ff;font-size:1em;"},
		{"li", "float:left;border-radius:0.5em;border-right:0em solid #bbb;"},
		{"li a", "color:white; display:block;border-radius:0.375em;padding:0.44em 0.44em;text-decoration:none;font-size:100%;"},
		{"li a:hover", "background-color:#0073e6;border-radius:0.375em;font-size:100%;"},
		{"h1", "color:white;border-radius:0.375em;font-size:1.5em;padding:0.2em 0.2em;background:#1e90ff;text-align:center;"},
		{"h2", "color:#1e90ff;font-size:1em;margin-top:1em;"},
		{"h3", "font-size:0.9em;color:#333;"},
		{"table", "font-family:Arial, sans-serif;font-size:0.9em;border-collapse:collapse;width:85%;margin:1em auto;"},
		{"th,td ", "border:0.06em solid #dddddd;text-align:left;padding:0.6em;border-bottom:0.06em solid #dddddd;"},
		{"th ", "background-color:#1e90ff;color:white;"},
		{"tr:nth-child(odd) ", "background-color:#f2f2f2;"},
		{".rcorners_n ", "border-radius:0.5em;background:#0073e6;padding:0.6em 0.6em;width:20%;color:white;font-size:75%;"},
		{".rcorners_m ", "border-radius:0.5em;background:#0073e6;padding:0.6em 0.6em;width:50%;color:white;font-size:75%;"},
		{".rcorners_w ", "border-radius:0.5em;background:#0073e6;padding:0.6em 0.6em;width:70%;color:white;font-size:75%;"},
		{".column", "float:left;width:50%;height:45%;"},
		{".row:after", "content:'';display:table;clear:both;"},
		{"*", "box-sizing:border-box;"},
		{"a", "font-size:85%;color:#1e90ff;text-decoration:none;"},
		{"a:hover", "text-decoration:underline;"},
		{"p", "font-size:85%;color:#333;"},
	}
}
