package version

import (
	"fmt"
	"strings"
)

type constraint struct {
	op      string
	version string
}

// Range is a normalized affected-version expression: a conjunction of
// simple comparisons. Its String form is canonical and feeds into the
// finding's canonical id.
type Range struct {
	constraints []constraint
	matchAll    bool
}

// ParseRange parses expressions of the shape ">=1.2.0 <1.3.5", "<4.17.21",
// "=1.2.3", a bare version (treated as exact) or "*" (all versions).
// Commas between constraints are accepted and mean conjunction too.
func ParseRange(expr string) (*Range, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty version range")
	}
	if expr == "*" {
		return &Range{matchAll: true}, nil
	}

	fields := strings.Fields(strings.ReplaceAll(expr, ",", " "))
	r := &Range{}
	for _, f := range fields {
		op := "="
		rest := f
		for _, candidate := range []string{">=", "<=", "==", "!=", ">", "<", "="} {
			if strings.HasPrefix(f, candidate) {
				op = candidate
				rest = strings.TrimSpace(f[len(candidate):])
				break
			}
		}
		if op == "==" {
			op = "="
		}
		if rest == "" {
			return nil, fmt.Errorf("dangling operator in range %q", expr)
		}
		r.constraints = append(r.constraints, constraint{op: op, version: rest})
	}
	return r, nil
}

// Matches reports whether version falls inside the range under the given
// comparator's ordering.
func (r *Range) Matches(cmp Comparator, version string) (bool, error) {
	if r.matchAll {
		return true, nil
	}
	for _, c := range r.constraints {
		n, err := cmp.Compare(version, c.version)
		if err != nil {
			return false, err
		}
		ok := false
		switch c.op {
		case "=":
			ok = n == 0
		case "!=":
			ok = n != 0
		case ">":
			ok = n > 0
		case ">=":
			ok = n >= 0
		case "<":
			ok = n < 0
		case "<=":
			ok = n <= 0
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// String renders the canonical form: constraints in input order, single
// spaces, "=" for exact matches.
func (r *Range) String() string {
	if r.matchAll {
		return "*"
	}
	parts := make([]string, len(r.constraints))
	for i, c := range r.constraints {
		parts[i] = c.op + c.version
	}
	return strings.Join(parts, " ")
}
