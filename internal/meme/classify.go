package meme

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// Intent is the result of classifying one request's input. All fields
// are optional; defaults are filled in at render time, not here.
type Intent struct {
	Description     string
	Scene           string
	Color           string
	Object          string
	Caption         string
	ExtraCharacters []string
}

// Enricher looks up a single unknown word externally. It returns either
// the original term or an annotated variant.
type Enricher func(ctx context.Context, term string) (string, error)

type ClassifierOptions struct {
	Enrich Enricher
	Logger *slog.Logger
}

// Classifier turns free text into an Intent using the active theme's
// vocabulary. Matching is a single left-to-right pass over whitespace
// tokens with a strict precedence: scene, then color, then object, then
// the enrichment fallback. The first category a token satisfies wins.
type Classifier struct {
	enrich Enricher
	logger *slog.Logger
}

func NewClassifier(opts ClassifierOptions) *Classifier {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Classifier{
		enrich: opts.Enrich,
		logger: logger,
	}
}

var quotedRe = regexp.MustCompile(`["'](.*?)["']`)

func (c *Classifier) Classify(ctx context.Context, raw string, theme Theme, mainCharacter string) Intent {
	var intent Intent

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return intent
	}

	// The quoted caption is pulled out before anything is lowercased so
	// the user's casing survives into the rendered text clause.
	caption, remainder := extractQuoted(raw)
	intent.Caption = caption

	working := strings.ToLower(strings.TrimSpace(remainder))
	if working == "" {
		return intent
	}

	mainLower := strings.ToLower(strings.TrimSpace(mainCharacter))
	var descTerms []string

	for _, term := range strings.Fields(working) {
		if scene, ok := matchScene(term, theme.Scenes); ok {
			intent.Scene = scene
			working = removeWord(working, term)
			continue
		}
		if color, ok := matchColor(term, theme.Colors); ok {
			intent.Color = color
			working = removeWord(working, term)
			continue
		}
		if object, ok := matchObject(term, theme.Objects); ok {
			intent.Object = object
			working = removeWord(working, term)
			continue
		}
		if term == mainLower {
			continue
		}

		enriched := term
		if c.enrich != nil {
			result, err := c.enrich(ctx, term)
			if err != nil {
				c.logger.Error("term enrichment failed", "term", term, "err", err)
			} else if result != "" {
				enriched = result
			}
		}
		if enriched != term {
			intent.ExtraCharacters = append(intent.ExtraCharacters, enriched)
		} else {
			descTerms = append(descTerms, term)
		}
	}

	if len(descTerms) > 0 {
		intent.Description = strings.Join(descTerms, " ")
	}

	// Tokens that matched nothing stay in the working text; the joined
	// leftover replaces whatever the fallback branch accumulated.
	leftover := strings.Join(strings.Fields(working), " ")
	if leftover != "" && leftover != mainLower {
		intent.Description = leftover
	}

	return intent
}

func extractQuoted(text string) (caption, remainder string) {
	loc := quotedRe.FindStringSubmatchIndex(text)
	if loc == nil {
		return "", text
	}

	caption = strings.TrimSpace(text[loc[2]:loc[3]])
	remainder = strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])
	return caption, remainder
}

func matchScene(term string, scenes []string) (string, bool) {
	if term == "moon" {
		return "moon", true
	}
	for _, s := range scenes {
		if containsWord(term, s) {
			return s, true
		}
	}
	return "", false
}

func matchColor(term string, colors []string) (string, bool) {
	for _, c := range colors {
		if containsWord(term, c) {
			return c, true
		}
	}
	return "", false
}

func matchObject(term string, objects []string) (string, bool) {
	if term == "rocketship" {
		return "a rocket ship", true
	}
	for _, obj := range objects {
		if strings.Contains(stripArticle(obj), term) {
			return obj, true
		}
	}
	return "", false
}

func stripArticle(phrase string) string {
	lower := strings.ToLower(phrase)
	switch {
	case strings.HasPrefix(lower, "a "):
		return lower[2:]
	case strings.HasPrefix(lower, "an "):
		return lower[3:]
	}
	return lower
}

func containsWord(haystack, phrase string) bool {
	re, err := wordRe(phrase)
	if err != nil {
		return false
	}
	return re.MatchString(haystack)
}

func removeWord(text, word string) string {
	re, err := wordRe(word)
	if err != nil {
		return text
	}
	return strings.TrimSpace(re.ReplaceAllString(text, ""))
}

func wordRe(phrase string) (*regexp.Regexp, error) {
	return regexp.Compile(`\b` + regexp.QuoteMeta(phrase) + `\b`)
}
