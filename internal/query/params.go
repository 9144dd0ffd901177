package query

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Parameter types.
const (
	ParamText   = "text"
	ParamNumber = "number"
)

// ErrMissingParameter is returned when a placeholder has no value.
var ErrMissingParameter = errors.New("missing parameter value")

// Parameter is a named input of a query, referenced in SQL as {{ name }}.
type Parameter struct {
	Name    string `json:"name" yaml:"name"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Type    string `json:"type" yaml:"type"`
	Default string `json:"default,omitempty" yaml:"default,omitempty"`
}

// Label returns the title, or the name if there is none.
func (p Parameter) Label() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// Validate checks value against the parameter type.
func (p Parameter) Validate(value string) error {
	switch p.Type {
	case ParamNumber:
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return fmt.Errorf("parameter %s: %q is not a number", p.Name, value)
		}
	case ParamText, "":
	default:
		return fmt.Errorf("parameter %s: unknown type %s", p.Name, p.Type)
	}
	return nil
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// ParseParameter parses a "name[:type][=default]" flag value.
func ParseParameter(s string) (Parameter, error) {
	p := Parameter{Type: ParamText}
	if i := strings.Index(s, "="); i >= 0 {
		p.Default = s[i+1:]
		s = s[:i]
	}
	name, typ, hasType := strings.Cut(s, ":")
	p.Name = strings.TrimSpace(name)
	if hasType {
		p.Type = strings.TrimSpace(typ)
	}
	if p.Name == "" {
		return Parameter{}, fmt.Errorf("parameter name is required")
	}
	if p.Type != ParamText && p.Type != ParamNumber {
		return Parameter{}, fmt.Errorf("parameter %s: type must be text or number, got %s", p.Name, p.Type)
	}
	if p.Default != "" {
		if err := p.Validate(p.Default); err != nil {
			return Parameter{}, err
		}
	}
	return p, nil
}

// Placeholders returns the distinct parameter names used in sql, in order of
// first appearance.
func Placeholders(sql string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(sql, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Bind substitutes every placeholder in sql. Values come from values, then
// from the parameter default. Number values are validated; text values are
// substituted as written.
func Bind(sql string, defs []Parameter, values map[string]string) (string, error) {
	byName := make(map[string]Parameter, len(defs))
	for _, d := range defs {
		byName[d.Name] = d
	}

	var errs []error
	out := placeholderRe.ReplaceAllStringFunc(sql, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		def, ok := byName[name]
		if !ok {
			def = Parameter{Name: name, Type: ParamText}
		}
		v, ok := values[name]
		if !ok || v == "" {
			v = def.Default
		}
		if v == "" {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingParameter, name))
			return m
		}
		if err := def.Validate(v); err != nil {
			errs = append(errs, err)
			return m
		}
		return strings.TrimSpace(v)
	})
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}
