package config

import (
	_ "embed"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/rota-da-festa/internal/crawler"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// CatalogEntry is one association or competition listing page
type CatalogEntry struct {
	Name        string `yaml:"name" validate:"required"`
	URL         string `yaml:"url" validate:"required,url"`
	MaxEditions int    `yaml:"max_editions" validate:"gte=0"`
}

// Catalog lists the phase-2 crawl sources
type Catalog struct {
	Sources []CatalogEntry `yaml:"sources" validate:"dive"`
}

var catalogValidator = validator.New()

// LoadCatalog reads path, or the embedded default when path is empty
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, errors.Wrapf(err, "reading catalog %s", path)
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		return Catalog{}, errors.Wrapf(err, "catalog %s", path)
	}
	return cat, nil
}

// ParseCatalog decodes and validates a YAML catalog. Duplicate URLs are dropped.
func ParseCatalog(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, errors.Wrap(err, "parsing catalog")
	}
	if err := catalogValidator.Struct(cat); err != nil {
		return Catalog{}, errors.Wrap(err, "invalid catalog")
	}

	seen := make(map[string]bool, len(cat.Sources))
	unique := cat.Sources[:0]
	for _, src := range cat.Sources {
		if seen[src.URL] {
			continue
		}
		seen[src.URL] = true
		unique = append(unique, src)
	}
	cat.Sources = unique
	return cat, nil
}

// CrawlerSources converts the catalog for the crawler
func (c Catalog) CrawlerSources() []crawler.Source {
	out := make([]crawler.Source, 0, len(c.Sources))
	for _, src := range c.Sources {
		out = append(out, crawler.Source{Name: src.Name, URL: src.URL, MaxEditions: src.MaxEditions})
	}
	return out
}
