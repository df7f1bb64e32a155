package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/harun/mcpilot/internal/observability"
	"github.com/harun/mcpilot/internal/tracing"
	"github.com/harun/mcpilot/pkg/mcp"
	"github.com/rs/zerolog"
)

// ResourceReader is the part of a session the schema source needs.
type ResourceReader interface {
	ReadResource(ctx context.Context, uri string) (string, error)
	ListResources(ctx context.Context) ([]mcp.Resource, error)
}

// SchemaSource assembles schema context text from session resources.
type SchemaSource struct {
	reader  ResourceReader
	uris    []string
	pattern *regexp.Regexp // nil unless discovery is on
	logger  zerolog.Logger
}

// NewSchemaSource compiles cfg.Pattern when discovery is enabled.
func NewSchemaSource(reader ResourceReader, cfg SchemaConfig, logger zerolog.Logger) (*SchemaSource, error) {
	s := &SchemaSource{
		reader: reader,
		uris:   append([]string(nil), cfg.URIs...),
		logger: logger.With().Str("component", "schema").Logger(),
	}
	if cfg.Discover {
		pattern := cfg.Pattern
		if pattern == "" {
			pattern = DefaultSchemaPattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid schema pattern: %w", err)
		}
		s.pattern = re
	}
	return s, nil
}

// Fetch reads every selected resource and joins the non-empty texts with a
// blank line. Texts that were read are returned even when others failed; the
// error then wraps ErrSchemaUnavailable.
func (s *SchemaSource) Fetch(ctx context.Context) (string, error) {
	logger := tracing.LoggerFromContext(ctx, s.logger)

	if s.reader == nil {
		observability.RecordSchemaFetch(false)
		return "", fmt.Errorf("%w: no session", ErrSchemaUnavailable)
	}

	var errs []error
	uris, err := s.selectURIs(ctx)
	if err != nil {
		errs = append(errs, err)
	}

	parts := make([]string, 0, len(uris))
	for _, uri := range uris {
		text, err := s.reader.ReadResource(ctx, uri)
		if err != nil {
			logger.Warn().Err(err).Str("uri", uri).Msg("Could not read schema resource")
			errs = append(errs, fmt.Errorf("%s: %w", uri, err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		parts = append(parts, text)
	}

	observability.RecordSchemaFetch(len(errs) == 0)
	text := strings.Join(parts, "\n\n")
	if len(errs) > 0 {
		return text, fmt.Errorf("%w: %w", ErrSchemaUnavailable, errors.Join(errs...))
	}

	logger.Debug().Int("resources", len(parts)).Int("bytes", len(text)).Msg("Schema context loaded")
	return text, nil
}

func (s *SchemaSource) selectURIs(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool, len(s.uris))
	uris := make([]string, 0, len(s.uris))
	for _, uri := range s.uris {
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		uris = append(uris, uri)
	}
	if s.pattern == nil {
		return uris, nil
	}

	resources, err := s.reader.ListResources(ctx)
	if err != nil {
		return uris, fmt.Errorf("list resources: %w", err)
	}
	for _, r := range resources {
		if seen[r.URI] || !s.pattern.MatchString(r.URI) {
			continue
		}
		seen[r.URI] = true
		uris = append(uris, r.URI)
	}
	return uris, nil
}
