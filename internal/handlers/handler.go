package handlers

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agrabio134/suimemebot/internal/meme"
	"github.com/agrabio134/suimemebot/internal/store"
)

// Telegram is the outbound surface the handlers drive. *telegram.Client
// satisfies it.
type Telegram interface {
	SendText(chatID int64, text string) error
	SendTextWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error
	SendPhotoURL(chatID int64, photoURL string, caption string) error
	SendTyping(chatID int64)
	AnswerCallback(callbackID string)
	IsAdmin(chatID int64, userID int64, chatType string) bool
}

// ImageSearcher finds a character image for a ticker. *websearch.Client
// satisfies it.
type ImageSearcher interface {
	SearchImageURL(ctx context.Context, ticker string) string
}

type Options struct {
	Telegram    Telegram
	Pipeline    *meme.Pipeline
	Store       *store.Store
	Search      ImageSearcher
	Logger      *slog.Logger
	TypingDelay time.Duration
}

type Handler struct {
	tg          Telegram
	pipeline    *meme.Pipeline
	store       *store.Store
	search      ImageSearcher
	logger      *slog.Logger
	typingDelay time.Duration

	mu      sync.Mutex
	pending map[int64]string // chat id -> setting key awaiting input
}

func New(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	typingDelay := opts.TypingDelay
	if typingDelay <= 0 {
		typingDelay = 3 * time.Second
	}

	return &Handler{
		tg:          opts.Telegram,
		pipeline:    opts.Pipeline,
		store:       opts.Store,
		search:      opts.Search,
		logger:      logger,
		typingDelay: typingDelay,
		pending:     make(map[int64]string),
	}
}

func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return h.handleCallback(ctx, update.CallbackQuery)
	}

	if update.Message == nil {
		return nil
	}
	msg := update.Message

	if msg.IsCommand() {
		return h.handleCommand(ctx, msg)
	}

	if msg.Text != "" {
		return h.handleSettingInput(ctx, msg)
	}

	return nil
}

func (h *Handler) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	command := strings.ToLower(msg.Command())
	h.logger.Info("command received", "command", command, "chat_id", chatID, "user_id", msg.From.ID)

	switch command {
	case "suimeme":
		return h.handleMeme(ctx, msg)
	case "settings":
		return h.handleSettings(ctx, msg)
	case "activate":
		return h.handleActivate(ctx, msg)
	case "start":
		return h.handleStart(ctx, msg)
	case "how":
		return h.handleHow(ctx, msg)
	case "help":
		return h.handleHelp(ctx, msg)
	case "hey":
		return h.handleHey(ctx, msg)
	default:
		return h.handleUnknown(ctx, msg)
	}
}

func (h *Handler) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	h.typePause(ctx, msg.Chat.ID, time.Second)
	h.ensureCharacterImage(ctx, msg.Chat.ID)

	return h.tg.SendText(msg.Chat.ID,
		"Yo, welcome to SuiMemeBot! 👑💦 I'm the Blue Slime King, droppin' memes!\n\n"+
			"/suimeme to make memes\n/how for tips\n/hey to vibe\n/settings to customize this group\n\n"+
			"Let's make the blockchain bounce!",
	)
}

func (h *Handler) handleHow(ctx context.Context, msg *tgbotapi.Message) error {
	h.typePause(ctx, msg.Chat.ID, time.Second)

	settings := h.store.Get(msg.Chat.ID)
	return h.tg.SendText(msg.Chat.ID,
		"Wanna meme with "+settings.MainCharacter+"? Use /suimeme and describe it! 😎\n\n"+
			"Add:\n- Scenes: explosion, fireworks, storm, wwe ring\n- Colors: red, blue, green\n"+
			"- Text: 'LFG!!'\n- Actions: 'eating pizza'\n\n"+
			"Examples:\n- /suimeme slime on toilet\n- /suimeme explosion 'LFG!!'\n"+
			"- /suimeme blue dancing underwater\n- /suimeme with pepe prog in wwe ring\n\n"+
			"Use /settings to change the main character, ticker (like "+settings.Ticker+"), or links for this group!\n/hey to vibe, /start to join!",
	)
}

func (h *Handler) handleHelp(ctx context.Context, msg *tgbotapi.Message) error {
	h.typePause(ctx, msg.Chat.ID, time.Second)

	settings := h.store.Get(msg.Chat.ID)
	return h.tg.SendText(msg.Chat.ID,
		"Yo! /suimeme for memes, /how for tips, /hey to vibe, /settings to customize this group's "+settings.Ticker+" vibe, /start to join! 😎👑",
	)
}

func (h *Handler) handleHey(ctx context.Context, msg *tgbotapi.Message) error {
	h.typePause(ctx, msg.Chat.ID, time.Second)

	return h.tg.SendText(msg.Chat.ID,
		"Yo, slime fam! I'm not available to talk for now, but keep the $SUIMEME vibes flowin'! 💦",
	)
}

func (h *Handler) handleUnknown(ctx context.Context, msg *tgbotapi.Message) error {
	h.logger.Info("unknown command", "text", msg.Text, "chat_id", msg.Chat.ID)
	h.typePause(ctx, msg.Chat.ID, time.Second)

	settings := h.store.Get(msg.Chat.ID)
	return h.tg.SendText(msg.Chat.ID,
		"Yo, slime fam! 😅 Unknown command. Try /suimeme for memes, /how for tips, /hey to vibe, /settings for "+settings.Ticker+" group, or /start! 👑",
	)
}

func (h *Handler) handleActivate(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID

	if !h.store.TokenGatingEnabled() {
		return h.tg.SendText(chatID, "Yo, slime fam! 😎 This bot is open for everyone, no token needed! 💦")
	}

	token := strings.TrimSpace(msg.CommandArguments())
	if token == "" {
		return h.tg.SendText(chatID, "Yo, slime fam! 😅 Usage: /activate <token>")
	}

	if !h.store.Activate(chatID, token) {
		h.logger.Warn("activation failed", "chat_id", chatID)
		return h.tg.SendText(chatID, "Yo, slime! 😅 That token doesn't look right. Try again!")
	}

	h.logger.Info("chat activated", "chat_id", chatID)
	return h.tg.SendText(chatID, "Yo, slime fam! 😎 This group is activated, let the memes flow! 💦")
}

// typePause shows the typing indicator and waits, bailing out early if
// the request context ends.
func (h *Handler) typePause(ctx context.Context, chatID int64, d time.Duration) {
	h.tg.SendTyping(chatID)
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// ensureCharacterImage fills in the chat's character image from a web
// search the first time it is needed.
func (h *Handler) ensureCharacterImage(ctx context.Context, chatID int64) string {
	settings := h.store.Get(chatID)
	if settings.CharacterImage != "" {
		return settings.CharacterImage
	}

	imageURL := h.search.SearchImageURL(ctx, settings.Ticker)
	if imageURL == "" {
		return ""
	}

	h.store.Update(chatID, func(s *store.ChatSettings) {
		s.CharacterImage = imageURL
	})
	return imageURL
}
