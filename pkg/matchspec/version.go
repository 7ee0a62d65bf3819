package matchspec

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

type op int

const (
	opExact op = iota
	opEQ
	opNE
	opGT
	opGE
	opLT
	opLE
	opPrefix
)

// operators are tried in order, longest first.
var operators = []struct {
	token string
	op    op
}{
	{">=", opGE},
	{"<=", opLE},
	{"==", opEQ},
	{"!=", opNE},
	{">", opGT},
	{"<", opLT},
	{"=", opEQ},
}

type atom struct {
	op      op
	version string
}

func (a atom) match(v string) bool {
	switch a.op {
	case opPrefix:
		return a.version == "" || v == a.version || strings.HasPrefix(v, a.version+".")
	case opExact, opEQ:
		return v == a.version || Compare(v, a.version) == 0
	case opNE:
		return Compare(v, a.version) != 0
	case opGT:
		return Compare(v, a.version) > 0
	case opGE:
		return Compare(v, a.version) >= 0
	case opLT:
		return Compare(v, a.version) < 0
	case opLE:
		return Compare(v, a.version) <= 0
	}
	return false
}

// compile turns a version expression into or-of-and atoms.
// An empty expression or "*" compiles to nil, which matches everything.
func compile(expr string) ([][]atom, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || expr == "*" {
		return nil, nil
	}
	expr = strings.ReplaceAll(expr, "||", "|")

	var alts [][]atom
	for _, alt := range strings.Split(expr, "|") {
		var all []atom
		for _, raw := range strings.Split(alt, ",") {
			a, err := parseAtom(strings.TrimSpace(raw))
			if err != nil {
				return nil, err
			}
			all = append(all, a)
		}
		alts = append(alts, all)
	}
	return alts, nil
}

func parseAtom(s string) (atom, error) {
	if s == "" {
		return atom{}, fmt.Errorf("empty version constraint")
	}
	for _, o := range operators {
		if rest, ok := strings.CutPrefix(s, o.token); ok {
			rest = strings.TrimSpace(rest)
			if rest == "" || strings.ContainsAny(rest, "<>=!") {
				return atom{}, fmt.Errorf("malformed constraint %q", s)
			}
			if strings.HasSuffix(rest, "*") {
				if o.op != opEQ {
					return atom{}, fmt.Errorf("wildcard not allowed with %q", o.token)
				}
				return prefixAtom(rest), nil
			}
			return atom{op: o.op, version: rest}, nil
		}
	}
	if strings.ContainsAny(s, "<>!") {
		return atom{}, fmt.Errorf("malformed constraint %q", s)
	}
	if strings.HasSuffix(s, "*") {
		return prefixAtom(s), nil
	}
	return atom{op: opExact, version: s}, nil
}

func prefixAtom(s string) atom {
	p := strings.TrimSuffix(s, "*")
	p = strings.TrimSuffix(p, ".")
	return atom{op: opPrefix, version: p}
}

// Compare compares two version strings, returning -1, 0 or 1.
//
// Both sides are parsed as semantic versions first; "2.7" and "2.7.0" compare
// equal. If either side is not a semantic version, the strings are compared
// dot-component by dot-component, numerically where both components are
// numbers and lexically otherwise.
func Compare(a, b string) int {
	if va, err := semver.NewVersion(a); err == nil {
		if vb, err := semver.NewVersion(b); err == nil {
			return va.Compare(vb)
		}
	}
	return compareLoose(a, b)
}

func compareLoose(a, b string) int {
	pa := strings.Split(a, ".")
	pb := strings.Split(b, ".")
	for i := 0; i < len(pa) || i < len(pb); i++ {
		ca, cb := "0", "0"
		if i < len(pa) {
			ca = pa[i]
		}
		if i < len(pb) {
			cb = pb[i]
		}
		if c := compareComponent(ca, cb); c != 0 {
			return c
		}
	}
	return 0
}

func compareComponent(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case errA == nil:
		// a plain release sorts after a tagged one (1.9 > 1.9rc1)
		if strings.HasPrefix(b, a) {
			return 1
		}
	case errB == nil:
		if strings.HasPrefix(a, b) {
			return -1
		}
	}
	return strings.Compare(a, b)
}
