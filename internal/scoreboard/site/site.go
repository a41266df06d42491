package site

import (
	"regexp"

	pkgerrors "scoreboard/pkg/errors"
)

// Medal is the award class of a placement inside a site.
type Medal string

const (
	MedalGold   Medal = "gold"
	MedalSilver Medal = "silver"
	MedalBronze Medal = "bronze"
	MedalNone   Medal = ""
)

// Site groups teams by login patterns and carries its own medal cutoffs.
type Site struct {
	Name   string   `json:"name"`
	Codes  []string `json:"codes"`
	Style  string   `json:"style,omitempty"`
	Gold   int      `json:"gold"`
	Silver int      `json:"silver"`
	Bronze int      `json:"bronze"`

	patterns []*regexp.Regexp
}

// New compiles a site with the default medal cutoffs 1, 2 and 3.
func New(name string, codes ...string) (*Site, error) {
	s := &Site{Name: name, Codes: codes, Gold: 1, Silver: 2, Bronze: 3}
	if err := s.Compile(); err != nil {
		return nil, err
	}
	return s, nil
}

// Compile builds the pattern set from Codes.
func (s *Site) Compile() error {
	patterns := make([]*regexp.Regexp, 0, len(s.Codes))
	for _, code := range s.Codes {
		re, err := regexp.Compile(code)
		if err != nil {
			return pkgerrors.Wrapf(err, pkgerrors.SiteConfigInvalid, "site %s: invalid code %q", s.Name, code)
		}
		patterns = append(patterns, re)
	}
	s.patterns = patterns
	return nil
}

// Contains reports whether any pattern matches somewhere in login.
func (s *Site) Contains(login string) bool {
	for _, re := range s.patterns {
		if re.MatchString(login) {
			return true
		}
	}
	return false
}

// Medal returns the award for a local placement. Placement 0 means the team
// is not ranked in this site.
func (s *Site) Medal(placement int) Medal {
	switch {
	case placement <= 0:
		return MedalNone
	case placement <= s.Gold:
		return MedalGold
	case placement <= s.Silver:
		return MedalSilver
	case placement <= s.Bronze:
		return MedalBronze
	default:
		return MedalNone
	}
}
