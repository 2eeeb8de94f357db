package meme

import (
	"io"
	"log/slog"
	"math/rand"
	"strings"
)

const (
	defaultMainCharacter = "Blue Slime King"
	defaultTicker        = "$SUIMEME"
)

// Profile is the slice of per-chat settings the synthesizer needs.
type Profile struct {
	MainCharacter string
	Ticker        string
}

func (p Profile) mainCharacter() string {
	if strings.TrimSpace(p.MainCharacter) == "" {
		return defaultMainCharacter
	}
	return p.MainCharacter
}

func (p Profile) ticker() string {
	if strings.TrimSpace(p.Ticker) == "" {
		return defaultTicker
	}
	return p.Ticker
}

// Rendered is a composed prompt plus the object that was drawn for the
// "sitting on" clause, so the caller can patch that clause when the
// classifier resolved a concrete object.
type Rendered struct {
	Prompt        string
	SittingObject string
}

type SynthesizerOptions struct {
	// Rand seeds deterministic choices for tests. A *rand.Rand is not
	// safe for concurrent use; leave it nil when the synthesizer is
	// shared across goroutines and the locked package-level source is
	// used.
	Rand   *rand.Rand
	Logger *slog.Logger
}

type Synthesizer struct {
	rand   *rand.Rand
	logger *slog.Logger
}

func NewSynthesizer(opts SynthesizerOptions) *Synthesizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Synthesizer{
		rand:   opts.Rand,
		logger: logger,
	}
}

// Render composes the deterministic prompt template. A scene or color
// the classifier recorded is used only if the theme still carries it,
// otherwise a random one takes its place.
func (s *Synthesizer) Render(intent Intent, theme Theme, profile Profile) Rendered {
	mainCharacter := profile.mainCharacter()
	ticker := profile.ticker()

	selectedScene := intent.Scene
	if !containsString(theme.Scenes, selectedScene) {
		selectedScene = s.choice(theme.Scenes)
	}
	selectedColor := intent.Color
	if !containsString(theme.Colors, selectedColor) {
		selectedColor = s.choice(theme.Colors)
	}
	sittingObject := s.choice(theme.Objects)
	style := s.choice(theme.Styles)

	var b strings.Builder
	b.WriteString("A " + style + " illustration of " + mainCharacter)
	if len(intent.ExtraCharacters) > 0 {
		b.WriteString(" with " + strings.Join(intent.ExtraCharacters, ", "))
	}
	if intent.Description != "" {
		b.WriteString(" " + intent.Description)
	} else {
		b.WriteString(" sitting confidently on " + sittingObject)
	}
	b.WriteString(", with a golden crown and " + ticker + " symbol")
	if selectedScene != "" {
		b.WriteString(", in a dramatic " + selectedScene + " setting")
	}
	if selectedColor != "" {
		b.WriteString(", colored in vibrant " + selectedColor)
	}
	if intent.Caption != "" {
		b.WriteString(", with the text '" + intent.Caption + "' prominently displayed on the image")
	}
	b.WriteString(", vibrant, humorous, high-quality, meme-inspired")

	prompt := b.String()
	s.logger.Info("generated prompt", "prompt", prompt)

	return Rendered{
		Prompt:        prompt,
		SittingObject: sittingObject,
	}
}

func (s *Synthesizer) choice(src []string) string {
	if len(src) == 0 {
		return ""
	}
	if s.rand != nil {
		return src[s.rand.Intn(len(src))]
	}
	return src[rand.Intn(len(src))]
}

func containsString(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
