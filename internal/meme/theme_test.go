package meme

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveWithoutURLReturnsDefaults(t *testing.T) {
	r := NewResolver(ResolverOptions{})

	theme := r.Resolve(context.Background(), "")

	assert.Equal(t, KindDefault, theme.Kind)
	assert.Len(t, theme.Objects, 28)
	assert.Len(t, theme.Styles, 23)
	assert.Len(t, theme.Scenes, 27)
	assert.Len(t, theme.Colors, 28)
}

func TestResolveFetchFailureFallsBackToDefaults(t *testing.T) {
	r := NewResolver(ResolverOptions{
		Fetch: func(context.Context, string) error {
			return errors.New("boom")
		},
	})

	theme := r.Resolve(context.Background(), "https://example.com/toilet.jpg")

	assert.Equal(t, KindDefault, theme.Kind)
}

func TestResolveMarkerThemes(t *testing.T) {
	r := NewResolver(ResolverOptions{
		Fetch: func(context.Context, string) error { return nil },
	})

	theme := r.Resolve(context.Background(), "https://example.com/Toilet_image.jpg")
	require.Equal(t, KindToilet, theme.Kind)
	assert.Contains(t, theme.Objects, "a golden toilet")

	theme = r.Resolve(context.Background(), "https://example.com/lofi_image.jpg")
	require.Equal(t, KindLofi, theme.Kind)
	assert.Contains(t, theme.Scenes, "vaporwave sunset")
}

func TestResolveSampledTheme(t *testing.T) {
	r := NewResolver(ResolverOptions{
		Fetch: func(context.Context, string) error { return nil },
		Rand:  rand.New(rand.NewSource(7)),
	})

	theme := r.Resolve(context.Background(), "https://example.com/character.jpg")

	require.Equal(t, KindSampled, theme.Kind)
	assert.Len(t, theme.Objects, 4)
	assert.Len(t, theme.Styles, 2)
	assert.Len(t, theme.Scenes, 2)
	assert.Len(t, theme.Colors, 3)

	seen := make(map[string]bool)
	for _, obj := range theme.Objects {
		assert.Contains(t, defaultObjects, obj)
		assert.False(t, seen[obj], "duplicate sample %q", obj)
		seen[obj] = true
	}
}

// One resolver and one synthesizer are shared by every update goroutine,
// so sampling must hold up under the race detector when no Rand is
// injected.
func TestResolveAndRenderConcurrently(t *testing.T) {
	r := NewResolver(ResolverOptions{
		Fetch: func(context.Context, string) error { return nil },
	})
	s := NewSynthesizer(SynthesizerOptions{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				theme := r.Resolve(context.Background(), "https://example.com/character.jpg")
				rendered := s.Render(Intent{}, theme, Profile{})
				if rendered.Prompt == "" {
					t.Error("empty prompt")
				}
			}
		}()
	}
	wg.Wait()
}
