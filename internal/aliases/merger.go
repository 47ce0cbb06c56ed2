package aliases

import (
	"strings"

	"github.com/cloo-solutions/aliasgen/internal/domain"
	"github.com/spf13/cast"
)

// Normalize converts the raw front matter value of the aliases field into a
// sequence. nil becomes empty, a string becomes a single entry.
func Normalize(existing any) []string {
	switch v := existing.(type) {
	case nil:
		return []string{}
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := cast.ToStringE(item)
			if item == nil || err != nil {
				continue
			}
			out = append(out, s)
		}
		return out
	default:
		// Scalars YAML decoded as numbers or booleans; maps are dropped.
		s, err := cast.ToStringE(v)
		if err != nil {
			return []string{}
		}
		return []string{s}
	}
}

// Merge appends discovered to the normalized existing aliases and removes
// exact duplicates, keeping the first occurrence. Comparison is
// case-sensitive and nothing is trimmed.
func Merge(existing any, discovered []string) domain.AliasSet {
	prior := Normalize(existing)
	seen := make(map[string]struct{}, len(prior)+len(discovered))
	out := make(domain.AliasSet, 0, len(prior)+len(discovered))

	add := func(alias string) {
		if _, ok := seen[alias]; ok {
			return
		}
		seen[alias] = struct{}{}
		out = append(out, alias)
	}

	for _, a := range prior {
		add(a)
	}
	for _, a := range discovered {
		add(a)
	}
	return out
}

// Usable drops candidates that are blank. Other entries are returned as-is.
func Usable(candidates []string) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c) == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
