package scanner

import (
	"context"
	"fmt"

	"NewsHarvester/internal/domain"
)

// Site describes a single news source and how to extract its articles.
type Site struct {
	Name                string
	URL                 string
	LinkSelector        string
	TitleSelector       string
	ContentSelector     string
	DateSelector        string
	DateRule            domain.DateRule
	ReadabilityFallback bool
}

// Scanner harvests raw articles from one site.
type Scanner interface {
	Scan(ctx context.Context, site Site) ([]domain.RawArticle, domain.SiteResult, error)
}

// Registry keeps the configured sites in declaration order.
type Registry struct {
	sites []Site
	index map[string]int
}

// NewRegistry builds a registry from the given sites.
func NewRegistry(sites ...Site) (*Registry, error) {
	r := &Registry{index: map[string]int{}}
	for _, site := range sites {
		if err := r.Register(site); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register validates and appends a site.
func (r *Registry) Register(site Site) error {
	if r.index == nil {
		r.index = map[string]int{}
	}
	if site.Name == "" {
		return fmt.Errorf("site name is empty")
	}
	if site.URL == "" {
		return fmt.Errorf("site %s: listing url is empty", site.Name)
	}
	if site.LinkSelector == "" || site.TitleSelector == "" || site.ContentSelector == "" {
		return fmt.Errorf("site %s: link, title and content selectors are required", site.Name)
	}
	if _, ok := r.index[site.Name]; ok {
		return fmt.Errorf("site %s is registered twice", site.Name)
	}
	if site.DateRule == "" {
		site.DateRule = domain.DateRulePassthrough
	}
	r.index[site.Name] = len(r.sites)
	r.sites = append(r.sites, site)
	return nil
}

// Resolve returns a site by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Site, error) {
	if i, ok := r.index[name]; ok {
		return r.sites[i], nil
	}
	return Site{}, fmt.Errorf("site %s is not registered", name)
}

// Sites returns a copy of all registered sites.
func (r *Registry) Sites() []Site {
	out := make([]Site, len(r.sites))
	copy(out, r.sites)
	return out
}
