// Package composer assembles the output text from a manifest.
//
// The order is fixed: parts are validated first, then the header, the
// wrapper start, each part in manifest order, the wrapper end, and the
// footer. Every section is rendered with its own merged variables; a
// variable declared on one section is never visible to another.
package composer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/manifest"
	"github.com/conneroisu/stitch/internal/partstore"
	"github.com/conneroisu/stitch/internal/template"
	"github.com/conneroisu/stitch/internal/validator"
)

const (
	sectionSeparator = "\n\n"
	partSeparator    = "\n\n"
)

// Composer builds the output string. It never writes to disk.
type Composer struct {
	store  partstore.Store
	logger logging.Logger
	dev    bool
	now    func() time.Time
}

// Option configures a Composer.
type Option func(*Composer)

// WithDev enables logging of part descriptions.
func WithDev(dev bool) Option {
	return func(c *Composer) {
		c.dev = dev
	}
}

// WithClock overrides the source of the automatic date variables.
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		c.now = now
	}
}

// New creates a Composer reading fragments from store.
func New(store partstore.Store, logger logging.Logger, opts ...Option) *Composer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	c := &Composer{
		store:  store,
		logger: logger.WithComponent("composer"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compose returns the full output for m. It fails with FragmentNotFound or
// ConfigInvalid before producing anything if a part cannot be resolved.
func (c *Composer) Compose(ctx context.Context, m *manifest.Manifest) (string, error) {
	if err := validator.Validate(m, c.store); err != nil {
		return "", err
	}

	now := c.now()
	var out strings.Builder

	if m.Header != nil {
		header, err := c.section(m.Header.File, m.Header.Variables, now)
		if err != nil {
			return "", fmt.Errorf("header: %w", err)
		}
		out.WriteString(header)
		out.WriteString(sectionSeparator)
	}

	if m.Wrapper != nil && m.Wrapper.Start != "" {
		out.WriteString(m.Wrapper.Start)
		out.WriteString("\n")
	}

	for i, part := range m.Parts {
		c.logger.Info(ctx, "Processing part", "part", part.Label())
		if c.dev && part.Description != "" {
			c.logger.Info(ctx, "  → "+part.Description, "part", part.Label())
		}

		content, err := c.section(part.File, part.Variables, now)
		if err != nil {
			return "", fmt.Errorf("part %s: %w", part.Label(), err)
		}
		out.WriteString(content)

		if i < len(m.Parts)-1 {
			out.WriteString(partSeparator)
		}
	}

	if m.Wrapper != nil && m.Wrapper.End != "" {
		out.WriteString("\n")
		out.WriteString(m.Wrapper.End)
	}

	if m.Footer != nil {
		footer, err := c.section(m.Footer.File, m.Footer.Variables, now)
		if err != nil {
			return "", fmt.Errorf("footer: %w", err)
		}
		out.WriteString(sectionSeparator)
		out.WriteString(footer)
	}

	return out.String(), nil
}

func (c *Composer) section(file string, declared manifest.Variables, now time.Time) (string, error) {
	raw, err := c.store.Get(file)
	if err != nil {
		return "", err
	}

	return template.RenderSection(raw, declared.Template(), now), nil
}
