// Package gallery provides the static image catalog and resolves gallery
// directives into bounded lists of concrete images.
//
// The catalog is loaded once at process start from an embedded JSON file and
// is read-only afterwards.
package gallery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	_ "embed"

	"github.com/ClevensDigital/LeadAdvisor/internal/models"
)

//go:embed catalog.json
var catalogJSON []byte

// Clamp bounds and the real-photo preference are policy, not hard-wired
// behavior; these are the defaults applied when no option overrides them.
const (
	DefaultImageCount = 2
	DefaultMinImages  = 1
	DefaultMaxImages  = 4
)

// placeholderImage is returned when a fired directive matches nothing in
// the catalog. Callers never receive zero entries for a fired directive.
var placeholderImage = models.GalleryImage{
	Before:      "/api/placeholder/300/400",
	After:       "/api/placeholder/300/400",
	Caption:     "Sample patient result",
	Procedure:   "general",
	Description: "Before and after comparison",
	Type:        models.GalleryTypeBeforeAfter,
}

// Opts holds configuration options for the gallery resolver.
type Opts struct {
	MinImages  int
	MaxImages  int
	PreferReal bool
}

// Option defines a configuration option for the gallery resolver.
type Option func(*Opts)

// WithImageBounds overrides the clamp applied to directive image counts.
func WithImageBounds(min, max int) Option {
	return func(o *Opts) {
		o.MinImages = min
		o.MaxImages = max
	}
}

// WithPreferReal controls whether real catalog entries are preferred over
// the placeholder when a procedure filter empties a category: when true the
// filter is relaxed to the whole category before falling back.
func WithPreferReal(prefer bool) Option {
	return func(o *Opts) { o.PreferReal = prefer }
}

// Resolver maps validated gallery directives to catalog images.
type Resolver struct {
	catalog map[models.GalleryType][]models.GalleryImage
	opts    Opts
}

// NewResolver loads the embedded catalog and applies any provided options.
func NewResolver(opts ...Option) (*Resolver, error) {
	cfg := Opts{MinImages: DefaultMinImages, MaxImages: DefaultMaxImages, PreferReal: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MinImages < 1 || cfg.MaxImages < cfg.MinImages {
		return nil, fmt.Errorf("invalid image bounds [%d,%d]", cfg.MinImages, cfg.MaxImages)
	}

	var catalog map[models.GalleryType][]models.GalleryImage
	if err := json.Unmarshal(catalogJSON, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse embedded gallery catalog: %w", err)
	}

	total := 0
	for _, entries := range catalog {
		total += len(entries)
	}
	slog.Debug("gallery.NewResolver: catalog loaded", "categories", len(catalog), "images", total)
	return &Resolver{catalog: catalog, opts: cfg}, nil
}

// Placeholder returns the designated fallback entry.
func (r *Resolver) Placeholder() models.GalleryImage {
	return placeholderImage
}

// Resolve maps a validated gallery directive to a bounded list of catalog
// images. The requested count is clamped to the configured bounds
// (defaulting when absent), and an empty result is replaced with the single
// placeholder entry.
func (r *Resolver) Resolve(d models.GalleryDirective) []models.GalleryImage {
	if !d.ShowGallery {
		return nil
	}

	count := d.ImageCount
	if count == 0 {
		count = DefaultImageCount
	}
	if count < r.opts.MinImages {
		count = r.opts.MinImages
	}
	if count > r.opts.MaxImages {
		count = r.opts.MaxImages
	}

	entries := r.catalog[d.GalleryType]
	matched := filter(entries, d.ProcedureType, d.FilterCriteria)
	if len(matched) == 0 && r.opts.PreferReal && d.FilterCriteria != nil {
		// Relax the secondary criteria before giving up on real photos.
		matched = filter(entries, d.ProcedureType, nil)
	}
	if len(matched) == 0 {
		slog.Debug("gallery.Resolve: no catalog match, using placeholder",
			"galleryType", d.GalleryType, "procedureType", d.ProcedureType)
		return []models.GalleryImage{placeholderImage}
	}

	if len(matched) > count {
		matched = matched[:count]
	}
	slog.Debug("gallery.Resolve: resolved images",
		"galleryType", d.GalleryType, "procedureType", d.ProcedureType, "count", len(matched))
	return matched
}

func filter(entries []models.GalleryImage, procedure string, criteria *models.FilterCriteria) []models.GalleryImage {
	var out []models.GalleryImage
	for _, img := range entries {
		if procedure != "" && img.Procedure != procedure {
			continue
		}
		if criteria != nil {
			if criteria.Gender != "" && !strings.EqualFold(img.Gender, criteria.Gender) {
				continue
			}
			if criteria.AgeRange != "" && img.AgeRange != criteria.AgeRange {
				continue
			}
		}
		out = append(out, img)
	}
	return out
}
