// Package meme implements the request pipeline behind the /suimeme
// command: admission, theme resolution, prompt synthesis and the remote
// image generation job.
package meme

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrabio134/suimemebot/internal/admission"
)

// ImageGenerator drives one remote generation job to completion and
// returns the media URL of the result.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type OutboundKind int

const (
	OutboundDenied OutboundKind = iota
	OutboundError
	OutboundPhoto
)

// Outbound is what the orchestrator delivers back to the chat: a denial
// or error text, or a finished photo with its caption.
type Outbound struct {
	Kind     OutboundKind
	Text     string
	Caption  string
	MediaURL string
}

type Request struct {
	Identity       admission.Identity
	Now            time.Time
	RawText        string
	ReferenceImage string
	Profile        Profile

	// OnAdmitted, when set, runs right after the request passes the
	// gate and returns the reference image URL to use instead of
	// ReferenceImage. Lets the caller defer settings lookups and
	// typing indicators until after admission.
	OnAdmitted func(ctx context.Context) string

	// OnProgress, when set, receives the progress line sent to the chat
	// once the request has been admitted and parsed.
	OnProgress func(text string)
}

type PipelineOptions struct {
	Gate       *admission.Gate
	Themes     *Resolver
	Classifier *Classifier
	Synth      *Synthesizer
	Generator  ImageGenerator
	Logger     *slog.Logger
}

type Pipeline struct {
	gate       *admission.Gate
	themes     *Resolver
	classifier *Classifier
	synth      *Synthesizer
	generator  ImageGenerator
	logger     *slog.Logger
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Pipeline{
		gate:       opts.Gate,
		themes:     opts.Themes,
		classifier: opts.Classifier,
		synth:      opts.Synth,
		generator:  opts.Generator,
		logger:     logger,
	}
}

// Handle runs one meme request end to end. Every failure past admission
// still releases the in-flight lock, and no failure is ever surfaced as
// a panic; the caller always gets an Outbound to deliver.
func (p *Pipeline) Handle(ctx context.Context, req Request) Outbound {
	logger := p.logger.With("request_id", uuid.NewString(), "key", req.Identity.Key())

	result := p.gate.Admit(req.Identity, req.Now)
	if !result.Allowed() {
		logger.Info("request denied", "reason", result.Decision.String())
		return deniedMessage(result, req.Profile.ticker())
	}
	defer p.gate.Release(req.Identity)

	referenceImage := req.ReferenceImage
	if req.OnAdmitted != nil {
		referenceImage = req.OnAdmitted(ctx)
	}

	theme := p.themes.Resolve(ctx, referenceImage)
	intent := p.classifier.Classify(ctx, req.RawText, theme, req.Profile.mainCharacter())
	logger.Info("parsed intent",
		"theme", theme.Kind.String(),
		"description", intent.Description,
		"scene", intent.Scene,
		"color", intent.Color,
		"object", intent.Object,
		"caption", intent.Caption,
		"extra_characters", strings.Join(intent.ExtraCharacters, ", "),
	)

	if req.OnProgress != nil {
		req.OnProgress(fmt.Sprintf("Generating your %s meme", req.Profile.ticker()))
	}

	rendered := p.synth.Render(intent, theme, req.Profile)
	prompt := rendered.Prompt
	if intent.Object != "" {
		// The template always renders a random sitting object; a concrete
		// match from the classifier is patched in afterwards.
		prompt = strings.Replace(prompt,
			"sitting confidently on "+rendered.SittingObject,
			"sitting confidently on "+intent.Object, 1)
	}

	mediaURL, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("image generation failed", "err", err)
		return Outbound{
			Kind: OutboundError,
			Text: fmt.Sprintf("Oops, failed to generate meme: %v", err),
		}
	}
	logger.Info("image generated", "url", mediaURL)

	return Outbound{
		Kind:     OutboundPhoto,
		MediaURL: mediaURL,
		Caption:  fmt.Sprintf("%s Meme: %s", req.Profile.ticker(), prompt),
	}
}

func deniedMessage(result admission.Result, ticker string) Outbound {
	var text string
	switch result.Decision {
	case admission.DeniedBusy:
		text = fmt.Sprintf("Yo, slime fam! 😎 Hold on, you're spamming too fast! Wait for your current %s meme to finish! 💦", ticker)
	case admission.DeniedUserRateLimited:
		text = fmt.Sprintf("Yo, slime fam! 😎 You're going too fast! Wait a bit for the next %s meme drop! 💦", ticker)
	case admission.DeniedGlobalRateLimited:
		text = fmt.Sprintf("Yo, slime fam! 😎 The bot's too hot right now! 🔥 Wait a bit for the next %s meme drop! 💦", ticker)
	case admission.DeniedCooldown:
		text = fmt.Sprintf("Yo, slime fam! 😎 Hold on, you're spamming too fast! Wait %.1fs for the next %s meme drop! 💦",
			result.RetryAfter.Seconds(), ticker)
	default:
		text = fmt.Sprintf("Yo, slime fam! 😎 Wait a bit for the next %s meme drop! 💦", ticker)
	}

	return Outbound{Kind: OutboundDenied, Text: text}
}
