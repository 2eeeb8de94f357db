package meme

import (
	"context"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testSynth() *Synthesizer {
	return NewSynthesizer(SynthesizerOptions{Rand: rand.New(rand.NewSource(1))})
}

func TestRenderWithSceneColorCaption(t *testing.T) {
	intent := Intent{Scene: "explosion", Color: "blue", Caption: "GM"}

	rendered := testSynth().Render(intent, DefaultTheme(), Profile{})

	assert.Contains(t, rendered.Prompt, "illustration of Blue Slime King")
	assert.Contains(t, rendered.Prompt, "with a golden crown and $SUIMEME symbol")
	assert.Contains(t, rendered.Prompt, "in a dramatic explosion setting")
	assert.Contains(t, rendered.Prompt, "colored in vibrant blue")
	assert.Contains(t, rendered.Prompt, "with the text 'GM' prominently displayed on the image")
	assert.True(t, strings.HasSuffix(rendered.Prompt, ", vibrant, humorous, high-quality, meme-inspired"))
}

func TestRenderDescriptionReplacesSittingClause(t *testing.T) {
	intent := Intent{Description: "dancing wildly"}

	rendered := testSynth().Render(intent, DefaultTheme(), Profile{})

	assert.Contains(t, rendered.Prompt, "Blue Slime King dancing wildly,")
	assert.NotContains(t, rendered.Prompt, "sitting confidently on")
	assert.NotEmpty(t, rendered.SittingObject)
}

func TestRenderDefaultsSittingObject(t *testing.T) {
	rendered := testSynth().Render(Intent{}, DefaultTheme(), Profile{})

	assert.Contains(t, rendered.Prompt, "sitting confidently on "+rendered.SittingObject)
	assert.Contains(t, DefaultTheme().Objects, rendered.SittingObject)
}

func TestRenderExtraCharacters(t *testing.T) {
	intent := Intent{ExtraCharacters: []string{"pepe", "doge"}}

	rendered := testSynth().Render(intent, DefaultTheme(), Profile{})

	assert.Contains(t, rendered.Prompt, "Blue Slime King with pepe, doge")
}

func TestRenderCustomProfile(t *testing.T) {
	profile := Profile{MainCharacter: "Fire Slime", Ticker: "$FIRE"}

	rendered := testSynth().Render(Intent{}, DefaultTheme(), profile)

	assert.Contains(t, rendered.Prompt, "illustration of Fire Slime")
	assert.Contains(t, rendered.Prompt, "$FIRE symbol")
}

func TestRenderUnknownSceneFallsBackToTheme(t *testing.T) {
	// "moon" is recorded by the classifier but is not part of the
	// default scene catalog, so a random theme scene takes its place.
	intent := Intent{Scene: "moon"}
	theme := DefaultTheme()

	rendered := testSynth().Render(intent, theme, Profile{})

	assert.NotContains(t, rendered.Prompt, "dramatic moon setting")
	assert.Contains(t, rendered.Prompt, "in a dramatic ")
}

func TestClassifyRenderRoundTrip(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	inputs := []string{
		"",
		"moon",
		"blue dancing underwater",
		`explosion "LFG!!"`,
		"pizza party gold",
	}

	for _, raw := range inputs {
		intent := c.Classify(context.Background(), raw, DefaultTheme(), "Blue Slime King")
		rendered := testSynth().Render(intent, DefaultTheme(), Profile{})

		assert.Contains(t, rendered.Prompt, "Blue Slime King", "input %q", raw)
		assert.Contains(t, rendered.Prompt, "$SUIMEME", "input %q", raw)
	}
}

func TestClassifyRenderFullScenario(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "blue explosion 'GM'", DefaultTheme(), "Blue Slime King")
	rendered := testSynth().Render(intent, DefaultTheme(), Profile{
		MainCharacter: "Blue Slime King",
		Ticker:        "$SUIMEME",
	})

	assert.Contains(t, rendered.Prompt, "illustration of Blue Slime King")
	assert.Contains(t, rendered.Prompt, "golden crown and $SUIMEME symbol")
	assert.Contains(t, rendered.Prompt, "in a dramatic explosion setting")
	assert.Contains(t, rendered.Prompt, "colored in vibrant blue")
	assert.Contains(t, rendered.Prompt, "with the text 'GM' prominently displayed on the image")
}
