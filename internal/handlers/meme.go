package handlers

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agrabio134/suimemebot/internal/admission"
	"github.com/agrabio134/suimemebot/internal/meme"
)

// handleMeme runs the /suimeme command through the generation pipeline
// and delivers whatever comes back: a denial, an error or the photo.
func (h *Handler) handleMeme(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	if !h.store.Activated(chatID) {
		return h.tg.SendText(chatID,
			"Yo, slime fam! 😅 This group isn't activated yet. An admin can unlock me with /activate <token>! 👑",
		)
	}

	settings := h.store.Get(chatID)

	out := h.pipeline.Handle(ctx, meme.Request{
		Identity: admission.Identity{ChatID: chatID, UserID: userID},
		Now:      time.Now(),
		RawText:  msg.CommandArguments(),
		Profile: meme.Profile{
			MainCharacter: settings.MainCharacter,
			Ticker:        settings.Ticker,
		},
		OnAdmitted: func(ctx context.Context) string {
			h.typePause(ctx, chatID, h.typingDelay)
			return h.ensureCharacterImage(ctx, chatID)
		},
		OnProgress: func(text string) {
			_ = h.tg.SendText(chatID, text)
		},
	})

	switch out.Kind {
	case meme.OutboundPhoto:
		return h.tg.SendPhotoURL(chatID, out.MediaURL, out.Caption)
	default:
		return h.tg.SendText(chatID, out.Text)
	}
}
