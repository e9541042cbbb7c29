package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errNameSyntax is wrapped by every ParseName failure.
var errNameSyntax = errors.New("invalid qualified name")

// Name is a qualified resource name of the form
// "domain:key=value[,key=value]*". Two names are equal when their
// canonical forms are equal.
type Name struct {
	domain string
	keys   []string
	props  map[string]string
	raw    string
}

// ParseName parses s into a Name.
func ParseName(s string) (Name, error) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return Name{}, fmt.Errorf("%w %q: missing domain separator", errNameSyntax, s)
	}
	domain := s[:colon]
	if strings.ContainsAny(domain, "*?\n") {
		return Name{}, fmt.Errorf("%w %q: domain patterns are not supported", errNameSyntax, s)
	}

	n := Name{domain: domain, props: make(map[string]string), raw: s}
	rest := s[colon+1:]
	if rest == "" {
		return Name{}, fmt.Errorf("%w %q: no key properties", errNameSyntax, s)
	}
	for rest != "" {
		eq := strings.IndexByte(rest, '=')
		if eq <= 0 {
			return Name{}, fmt.Errorf("%w %q: expected key=value", errNameSyntax, s)
		}
		key := rest[:eq]
		if strings.ContainsAny(key, ",=:*?\"\n") {
			return Name{}, fmt.Errorf("%w %q: illegal character in key %q", errNameSyntax, s, key)
		}
		value, remainder, err := scanValue(rest[eq+1:])
		if err != nil {
			return Name{}, fmt.Errorf("%w %q: %v", errNameSyntax, s, err)
		}
		if _, dup := n.props[key]; dup {
			return Name{}, fmt.Errorf("%w %q: duplicate key %q", errNameSyntax, s, key)
		}
		n.keys = append(n.keys, key)
		n.props[key] = value
		rest = remainder
		if rest != "" {
			if rest[0] != ',' || len(rest) == 1 {
				return Name{}, fmt.Errorf("%w %q: expected ',' between properties", errNameSyntax, s)
			}
			rest = rest[1:]
		}
	}
	return n, nil
}

// scanValue reads one property value, quoted or plain, and returns it
// along with the unconsumed input.
func scanValue(s string) (string, string, error) {
	if strings.HasPrefix(s, `"`) {
		for i := 1; i < len(s); i++ {
			switch s[i] {
			case '\\':
				i++
			case '"':
				return s[:i+1], s[i+1:], nil
			}
		}
		return "", "", errors.New("unterminated quoted value")
	}
	end := strings.IndexByte(s, ',')
	if end < 0 {
		end = len(s)
	}
	value := s[:end]
	if value == "" {
		return "", "", errors.New("empty value")
	}
	if strings.ContainsAny(value, "=:\"*?\n") {
		return "", "", fmt.Errorf("illegal character in value %q", value)
	}
	return value, s[end:], nil
}

// MustParseName is ParseName that panics on error.
func MustParseName(s string) Name {
	n, err := ParseName(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Domain returns the part before the colon.
func (n Name) Domain() string {
	return n.domain
}

// Property returns the value of a key property.
func (n Name) Property(key string) (string, bool) {
	v, ok := n.props[key]
	return v, ok
}

// Canonical returns the name with its key properties sorted by key.
func (n Name) Canonical() string {
	if n.IsZero() {
		return ""
	}
	keys := make([]string, len(n.keys))
	copy(keys, n.keys)
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(n.domain)
	b.WriteByte(':')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(n.props[k])
	}
	return b.String()
}

// Equal reports whether both names have the same canonical form.
func (n Name) Equal(other Name) bool {
	return n.Canonical() == other.Canonical()
}

// IsZero reports whether n is the zero Name.
func (n Name) IsZero() bool {
	return n.props == nil
}

// String returns the name as it was parsed.
func (n Name) String() string {
	return n.raw
}
