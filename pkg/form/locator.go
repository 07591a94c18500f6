package form

import "strings"

// Locator selects controls by name. Queries and subscriptions treat a nil
// Locator as matching every control.
type Locator interface {
	Match(name string) bool
	String() string
}

type locator struct {
	desc  string
	match func(string) bool
}

func (l locator) Match(name string) bool { return l.match(name) }
func (l locator) String() string         { return l.desc }

// Named matches a field by its bare name or by any inline-prefixed variant
// ("bottle", "taste_set-0-bottle").
func Named(field string) Locator {
	inline := "-" + field
	return locator{
		desc: "named " + field,
		match: func(name string) bool {
			return name == field || strings.HasSuffix(name, inline)
		},
	}
}

// EndsWith matches every control whose name ends with suffix. It is the
// loose match used for dependent fields, so "title" also matches "subtitle".
func EndsWith(suffix string) Locator {
	return locator{
		desc: "ends with " + suffix,
		match: func(name string) bool {
			return suffix != "" && strings.HasSuffix(name, suffix)
		},
	}
}

// Exact matches a single control name.
func Exact(name string) Locator {
	return locator{
		desc: "exact " + name,
		match: func(n string) bool {
			return n == name
		},
	}
}

// matches treats a nil locator as matching every control.
func matches(loc Locator, name string) bool {
	return loc == nil || loc.Match(name)
}
