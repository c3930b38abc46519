// Package presets holds built-in target sets.
package presets

import (
	"fmt"
	"slices"
	"sort"
)

type Preset struct {
	Hosts []string
	Ports []int
}

var builtin = map[string]Preset{
	"office365": {
		Hosts: []string{
			"outlook.office365.com",
			"smtp.office365.com",
			"login.microsoftonline.com",
			"autodiscover-s.outlook.com",
		},
		Ports: []int{25, 80, 143, 443, 587, 993, 995},
	},
}

func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns a copy, callers may append to it.
func Lookup(name string) (Preset, error) {
	p, ok := builtin[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q, known: %v", name, Names())
	}
	return Preset{
		Hosts: slices.Clone(p.Hosts),
		Ports: slices.Clone(p.Ports),
	}, nil
}
