package meme

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyScenesBeatColors(t *testing.T) {
	theme := Theme{
		Scenes: []string{"blue"},
		Colors: []string{"blue"},
	}

	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "blue", theme, "Blue Slime King")

	assert.Equal(t, "blue", intent.Scene)
	assert.Empty(t, intent.Color)
}

func TestClassifyColorsBeatObjects(t *testing.T) {
	theme := Theme{
		Colors:  []string{"gold"},
		Objects: []string{"a gold bar"},
	}

	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "gold", theme, "Blue Slime King")

	assert.Equal(t, "gold", intent.Color)
	assert.Empty(t, intent.Object)
}

func TestClassifyQuotedCaption(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), `slime explosion "LFG!!"`, DefaultTheme(), "Blue Slime King")

	assert.Equal(t, "LFG!!", intent.Caption)
	assert.Equal(t, "explosion", intent.Scene)
	assert.Equal(t, "slime", intent.Description)
	assert.NotContains(t, intent.Description, "LFG")
}

func TestClassifyMoonLiteral(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "moon", DefaultTheme(), "Blue Slime King")

	assert.Equal(t, "moon", intent.Scene)
}

func TestClassifyObjects(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})

	intent := c.Classify(context.Background(), "pizza", DefaultTheme(), "Blue Slime King")
	assert.Equal(t, "a giant pizza", intent.Object)

	intent = c.Classify(context.Background(), "rocketship", DefaultTheme(), "Blue Slime King")
	assert.Equal(t, "a rocket ship", intent.Object)
}

func TestClassifyEnrichedTermBecomesExtraCharacter(t *testing.T) {
	enrich := func(_ context.Context, term string) (string, error) {
		if term == "pepe" {
			return "pepe (based on web context)", nil
		}
		return term, nil
	}

	c := NewClassifier(ClassifierOptions{Enrich: enrich})
	intent := c.Classify(context.Background(), "pepe underwater", DefaultTheme(), "Blue Slime King")

	require.Len(t, intent.ExtraCharacters, 1)
	assert.Equal(t, "pepe (based on web context)", intent.ExtraCharacters[0])
	assert.Equal(t, "underwater", intent.Scene)
	// The raw token is still part of the leftover text, which becomes
	// the description.
	assert.Equal(t, "pepe", intent.Description)
}

func TestClassifyEnrichmentFailureKeepsTerm(t *testing.T) {
	enrich := func(_ context.Context, term string) (string, error) {
		return "", assert.AnError
	}

	c := NewClassifier(ClassifierOptions{Enrich: enrich})
	intent := c.Classify(context.Background(), "dancing", DefaultTheme(), "Blue Slime King")

	assert.Empty(t, intent.ExtraCharacters)
	assert.Equal(t, "dancing", intent.Description)
}

func TestClassifyMainCharacterNameIsNotADescription(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "slime", DefaultTheme(), "slime")

	assert.Empty(t, intent.Description)
	assert.Empty(t, intent.ExtraCharacters)
}

func TestClassifyEmptyInput(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})

	assert.Equal(t, Intent{}, c.Classify(context.Background(), "", DefaultTheme(), "Blue Slime King"))
	assert.Equal(t, Intent{}, c.Classify(context.Background(), "   ", DefaultTheme(), "Blue Slime King"))
}

func TestClassifyEndToEndExample(t *testing.T) {
	c := NewClassifier(ClassifierOptions{})
	intent := c.Classify(context.Background(), "blue explosion 'GM'", DefaultTheme(), "Blue Slime King")

	assert.Equal(t, "explosion", intent.Scene)
	assert.Equal(t, "blue", intent.Color)
	assert.Equal(t, "GM", intent.Caption)
	assert.Empty(t, intent.Description)
}
