package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/showwatch/internal/classify"
	"github.com/hamed0406/showwatch/internal/domain"
)

var (
	ErrNoSites     = errors.New("no sites configured")
	ErrInvalidSite = errors.New("invalid site")
)

// SitesFile is the YAML layout of SITES_FILE. Rules under defaults apply to
// every site; a site's own rules override them field by field.
type SitesFile struct {
	Defaults struct {
		Rules classify.Rules `yaml:"rules"`
	} `yaml:"defaults"`
	Sites []domain.Site `yaml:"sites"`
}

func LoadSites(path string) ([]domain.Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sites file: %w", err)
	}
	sites, err := ParseSites(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sites, nil
}

func ParseSites(data []byte) ([]domain.Site, error) {
	var f SitesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sites yaml: %w", err)
	}
	if len(f.Sites) == 0 {
		return nil, ErrNoSites
	}

	var errs error
	seen := make(map[domain.SiteID]bool, len(f.Sites))
	for i := range f.Sites {
		s := &f.Sites[i]
		s.ID = domain.SiteID(strings.TrimSpace(string(s.ID)))
		s.Rules = s.Rules.Merge(f.Defaults.Rules)
		if err := validateSite(*s); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("sites[%d]: %w", i, err))
			continue
		}
		if seen[s.ID] {
			errs = multierr.Append(errs, fmt.Errorf("sites[%d]: %w: duplicate id %q", i, ErrInvalidSite, s.ID))
		}
		seen[s.ID] = true
	}
	if errs != nil {
		return nil, errs
	}
	return f.Sites, nil
}

func validateSite(s domain.Site) error {
	if s.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSite)
	}
	if strings.TrimSpace(s.Subject) == "" {
		return fmt.Errorf("%w: %s: missing subject", ErrInvalidSite, s.ID)
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s: url must be http(s), got %q", ErrInvalidSite, s.ID, s.URL)
	}
	n := 0
	for _, t := range s.Targets {
		if strings.TrimSpace(t) != "" {
			n++
		}
	}
	if n == 0 {
		return fmt.Errorf("%w: %s: no targets", ErrInvalidSite, s.ID)
	}
	return nil
}
