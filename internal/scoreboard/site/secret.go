package site

import (
	"bytes"
	"os"

	"github.com/pelletier/go-toml/v2"

	pkgerrors "scoreboard/pkg/errors"
)

// SecretConfig lists the secrets that unlock the unmasked runs of a site.
type SecretConfig struct {
	Salt    string       `toml:"salt"`
	Secrets []SiteSecret `toml:"secrets"`
}

type SiteSecret struct {
	Name   string `toml:"name"`
	Secret string `toml:"secret"`
}

// SecretTable maps salted secrets to the site they unlock.
type SecretTable struct {
	sites map[string]*Site
}

func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, pkgerrors.SiteConfigInvalid, "read secret config %s: %v", path, err)
	}
	return ParseSecretConfig(data)
}

func ParseSecretConfig(data []byte) (*SecretConfig, error) {
	var cfg SecretConfig
	if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg); err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.SiteConfigInvalid)
	}
	return &cfg, nil
}

// Table resolves the secret names against sites. Secrets naming an
// unknown site are skipped.
func (c *SecretConfig) Table(sites *Config) *SecretTable {
	t := &SecretTable{sites: make(map[string]*Site)}
	if c == nil || sites == nil {
		return t
	}
	for _, entry := range c.Secrets {
		s, err := sites.Lookup(entry.Name)
		if err != nil {
			continue
		}
		t.sites[c.Salt+entry.Secret] = s
	}
	return t
}

// Resolve returns the site unlocked by a salted secret.
func (t *SecretTable) Resolve(secret string) (*Site, error) {
	if t == nil || secret == "" {
		return nil, pkgerrors.New(pkgerrors.SecretInvalid)
	}
	s, ok := t.sites[secret]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.SecretInvalid)
	}
	return s, nil
}

func (t *SecretTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.sites)
}
