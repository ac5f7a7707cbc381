package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"feed-ingest/internal/domain/entity"
	"feed-ingest/internal/repository"

	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML document accepted by Seed.
//
//	sources:
//	  - name: Go Blog
//	    feed_url: https://go.dev/blog/feed.atom
//	    url: https://go.dev/blog
//	    fetch_interval_minutes: 60
type SeedFile struct {
	Sources []SeedSource `yaml:"sources"`
}

// SeedSource is one entry of a seed file. Active defaults to true.
type SeedSource struct {
	Name                 string `yaml:"name"`
	URL                  string `yaml:"url"`
	FeedURL              string `yaml:"feed_url"`
	Active               *bool  `yaml:"active"`
	FetchIntervalMinutes int    `yaml:"fetch_interval_minutes"`
}

func (s SeedSource) entity() *entity.Source {
	active := true
	if s.Active != nil {
		active = *s.Active
	}
	interval := s.FetchIntervalMinutes
	if interval == 0 {
		interval = entity.DefaultFetchIntervalMinutes
	}
	return &entity.Source{
		Name:                 strings.TrimSpace(s.Name),
		URL:                  strings.TrimSpace(s.URL),
		FeedURL:              strings.TrimSpace(s.FeedURL),
		Active:               active,
		FetchIntervalMinutes: interval,
	}
}

// SeedReport counts what Seed did.
type SeedReport struct {
	Registered int
	Existing   int
}

// Service registers sources.
type Service struct {
	Repo repository.SourceRepository
}

// ParseSeed decodes and validates a seed document. Unknown keys are rejected.
func ParseSeed(r io.Reader) ([]*entity.Source, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f SeedFile
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptySeed
		}
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	if len(f.Sources) == 0 {
		return nil, ErrEmptySeed
	}

	seen := make(map[string]struct{}, len(f.Sources))
	out := make([]*entity.Source, 0, len(f.Sources))
	for i, s := range f.Sources {
		src := s.entity()
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
		if _, dup := seen[src.FeedURL]; dup {
			return nil, fmt.Errorf("sources[%d] %s: %w", i, src.FeedURL, ErrDuplicateSource)
		}
		seen[src.FeedURL] = struct{}{}
		out = append(out, src)
	}
	return out, nil
}

// SeedFromFile reads path and registers every source in it.
func (s *Service) SeedFromFile(ctx context.Context, path string) (SeedReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedReport{}, fmt.Errorf("open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	srcs, err := ParseSeed(f)
	if err != nil {
		return SeedReport{}, fmt.Errorf("%s: %w", path, err)
	}
	return s.Seed(ctx, srcs)
}

// Seed registers srcs in order. It stops at the first repository error.
func (s *Service) Seed(ctx context.Context, srcs []*entity.Source) (SeedReport, error) {
	var rep SeedReport
	for _, src := range srcs {
		created, err := s.Repo.Register(ctx, src)
		if err != nil {
			return rep, fmt.Errorf("register source %q: %w", src.FeedURL, err)
		}
		if created {
			rep.Registered++
		} else {
			rep.Existing++
		}
	}
	slog.Info("sources seeded",
		slog.Int("registered", rep.Registered),
		slog.Int("existing", rep.Existing))
	return rep, nil
}
