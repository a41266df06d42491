package site

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"

	pkgerrors "scoreboard/pkg/errors"
)

// Config is the site configuration of a contest. Title is the root site
// that covers every team shown on the main scoreboard.
type Config struct {
	Title *Site   `json:"title"`
	Sites []*Site `json:"sites"`
}

type siteEntry struct {
	Name   string   `toml:"name"`
	Codes  []string `toml:"codes"`
	Style  string   `toml:"style"`
	Gold   *int     `toml:"gold"`
	Silver *int     `toml:"silver"`
	Bronze *int     `toml:"bronze"`
}

type configFile struct {
	Title *siteEntry  `toml:"title"`
	Sites []siteEntry `toml:"sites"`
}

// LoadConfig reads a TOML site configuration from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.SiteConfigInvalid, "read site config %s: %v", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a TOML site configuration and compiles every site.
func ParseConfig(data []byte) (*Config, error) {
	var file configFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.SiteConfigInvalid)
	}
	if file.Title == nil {
		return nil, pkgerrors.New(pkgerrors.SiteConfigInvalid).WithMessage("site config has no title")
	}

	cfg := &Config{}
	title, err := file.Title.build()
	if err != nil {
		return nil, err
	}
	cfg.Title = title

	seen := map[string]bool{title.Name: true}
	for i := range file.Sites {
		s, err := file.Sites[i].build()
		if err != nil {
			return nil, err
		}
		if seen[s.Name] {
			return nil, pkgerrors.Newf(pkgerrors.SiteConfigInvalid, "duplicate site %s", s.Name)
		}
		seen[s.Name] = true
		cfg.Sites = append(cfg.Sites, s)
	}
	return cfg, nil
}

// Default returns a configuration whose title site matches every login.
func Default(title string) *Config {
	s, _ := New(title, "")
	return &Config{Title: s}
}

// Lookup finds a site by name, the title included.
func (c *Config) Lookup(name string) (*Site, error) {
	if c.Title != nil && c.Title.Name == name {
		return c.Title, nil
	}
	for _, s := range c.Sites {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, pkgerrors.Newf(pkgerrors.SiteNotFound, "site %s not found", name)
}

// SiteOf returns the first ordinary site containing login.
func (c *Config) SiteOf(login string) (*Site, bool) {
	for _, s := range c.Sites {
		if s.Contains(login) {
			return s, true
		}
	}
	return nil, false
}

func (e *siteEntry) build() (*Site, error) {
	if e.Name == "" {
		return nil, pkgerrors.New(pkgerrors.SiteConfigInvalid).WithMessage("site without name")
	}
	s := &Site{
		Name:   e.Name,
		Codes:  e.Codes,
		Style:  e.Style,
		Gold:   intOr(e.Gold, 1),
		Silver: intOr(e.Silver, 2),
		Bronze: intOr(e.Bronze, 3),
	}
	if err := s.Compile(); err != nil {
		return nil, err
	}
	return s, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}
