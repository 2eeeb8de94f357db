package meme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
)

type ThemeKind int

const (
	KindDefault ThemeKind = iota
	KindToilet
	KindLofi
	KindSampled
)

func (k ThemeKind) String() string {
	switch k {
	case KindDefault:
		return "default"
	case KindToilet:
		return "toilet"
	case KindLofi:
		return "lofi"
	case KindSampled:
		return "sampled"
	default:
		return "unknown"
	}
}

// Theme is the vocabulary one request draws scenes, colors, objects and
// styles from. Immutable once resolved.
type Theme struct {
	Kind    ThemeKind
	Objects []string
	Styles  []string
	Scenes  []string
	Colors  []string
}

func DefaultTheme() Theme {
	return Theme{
		Kind:    KindDefault,
		Objects: defaultObjects,
		Styles:  defaultStyles,
		Scenes:  defaultScenes,
		Colors:  defaultColors,
	}
}

// Fetcher checks that a reference image URL is reachable. The body is
// never inspected; only the URL itself drives the theme heuristics.
type Fetcher func(ctx context.Context, url string) error

// NewHTTPFetcher builds a Fetcher that issues a plain GET and treats
// any non-2xx status as a failure.
func NewHTTPFetcher(client *http.Client) Fetcher {
	return func(ctx context.Context, url string) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("fetch %s: %s", url, resp.Status)
		}
		return nil
	}
}

type ResolverOptions struct {
	Fetch Fetcher

	// Rand seeds deterministic sampling for tests. A *rand.Rand is not
	// safe for concurrent use; leave it nil when the resolver is shared
	// across goroutines and the locked package-level source is used.
	Rand   *rand.Rand
	Logger *slog.Logger
}

// Resolver turns an optional reference image URL into a Theme. Fetch
// failures are recovered to the default theme, never surfaced.
type Resolver struct {
	fetch  Fetcher
	rand   *rand.Rand
	logger *slog.Logger
}

func NewResolver(opts ResolverOptions) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Resolver{
		fetch:  opts.Fetch,
		rand:   opts.Rand,
		logger: logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, imageURL string) Theme {
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return DefaultTheme()
	}

	if r.fetch != nil {
		if err := r.fetch(ctx, imageURL); err != nil {
			r.logger.Error("reference image fetch failed", "url", imageURL, "err", err)
			return DefaultTheme()
		}
	}

	lower := strings.ToLower(imageURL)
	switch {
	case strings.Contains(lower, "toilet"):
		return toiletTheme
	case strings.Contains(lower, "lofi"):
		return lofiTheme
	}

	return Theme{
		Kind:    KindSampled,
		Objects: sample(r.rand, defaultObjects, 4),
		Styles:  sample(r.rand, defaultStyles, 2),
		Scenes:  sample(r.rand, defaultScenes, 2),
		Colors:  sample(r.rand, defaultColors, 3),
	}
}

// sample draws n distinct entries without replacement.
func sample(rng *rand.Rand, src []string, n int) []string {
	if n > len(src) {
		n = len(src)
	}

	idx := perm(rng, len(src))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, src[i])
	}
	return out
}

func perm(rng *rand.Rand, n int) []int {
	if rng != nil {
		return rng.Perm(n)
	}
	return rand.Perm(n)
}
