package handlers

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/agrabio134/suimemebot/internal/store"
)

var (
	contractRe = regexp.MustCompile(`^0x[a-fA-F0-9]+::[a-zA-Z0-9]+::[a-zA-Z0-9]+`)
	tickerRe   = regexp.MustCompile(`^\$[A-Z]+`)
)

var settingPrompts = map[string]string{
	"set_character": "Yo, slime fam! 😎 Enter the new character name (e.g., 'Fire Slime')",
	"set_image_url": "Yo, slime fam! 😎 Enter the new image URL (e.g., 'https://example.com/image.jpg')",
	"set_ca":        "Yo, slime fam! 😎 Enter the new contract address (e.g., '0x123::module::TYPE')",
	"set_tg":        "Yo, slime fam! 😎 Enter the new Telegram URL (e.g., 'https://t.me/newgroup')",
	"set_x":         "Yo, slime fam! 😎 Enter the new Twitter/X URL (e.g., 'https://x.com/newaccount')",
	"set_web":       "Yo, slime fam! 😎 Enter the new website URL (e.g., 'https://newwebsite.com')",
	"set_ticker":    "Yo, slime fam! 😎 Enter the new ticker (e.g., '$NEWCOIN')",
}

func (h *Handler) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	settings := h.store.Get(chatID)
	if !h.tg.IsAdmin(chatID, userID, msg.Chat.Type) {
		h.logger.Info("settings denied, not admin", "chat_id", chatID, "user_id", userID)
		return h.tg.SendText(chatID,
			fmt.Sprintf("Yo, slime fam! 😅 /settings is only for group admins. Ask an admin to customize the %s vibe! 👑", settings.Ticker),
		)
	}

	h.typePause(ctx, chatID, time.Second)
	h.ensureCharacterImage(ctx, chatID)
	settings = h.store.Get(chatID)

	characterImage := settings.CharacterImage
	if characterImage == "" {
		characterImage = "Not set"
	}

	text := fmt.Sprintf(
		"Yo, slime fam! 😎 Current settings for this group: 💦\n"+
			"------------------------\n"+
			"Main Character: %s\n"+
			"Character Image: %s\n"+
			"Contract Address: %s\n"+
			"Telegram: %s\n"+
			"Twitter/X: %s\n"+
			"Website: %s\n"+
			"Ticker: %s\n"+
			"------------------------\n"+
			"Click a button below to update a setting:",
		settings.MainCharacter, characterImage, settings.ContractAddress,
		settings.Telegram, settings.Twitter, settings.Website, settings.Ticker,
	)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Character", "set_character"),
			tgbotapi.NewInlineKeyboardButtonData("Image URL", "set_image_url"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Contract Address", "set_ca"),
			tgbotapi.NewInlineKeyboardButtonData("Telegram", "set_tg"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Twitter/X", "set_x"),
			tgbotapi.NewInlineKeyboardButtonData("Website", "set_web"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Ticker", "set_ticker"),
		),
	)

	return h.tg.SendTextWithKeyboard(chatID, text, keyboard)
}

func (h *Handler) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.Message == nil {
		return nil
	}
	h.tg.AnswerCallback(q.ID)

	chatID := q.Message.Chat.ID
	userID := q.From.ID
	setting := strings.TrimSpace(q.Data)

	prompt, known := settingPrompts[setting]
	if !known {
		return nil
	}

	if !h.tg.IsAdmin(chatID, userID, q.Message.Chat.Type) {
		settings := h.store.Get(chatID)
		h.logger.Info("settings update denied, not admin", "chat_id", chatID, "user_id", userID)
		return h.tg.SendText(chatID,
			fmt.Sprintf("Yo, slime fam! 😅 Only admins can update %s settings. Ask an admin to make changes! 👑", settings.Ticker),
		)
	}

	h.mu.Lock()
	h.pending[chatID] = setting
	h.mu.Unlock()

	return h.tg.SendText(chatID, prompt)
}

// handleSettingInput consumes the next plain-text message in a chat
// that has a pending setting selected from the /settings keyboard.
func (h *Handler) handleSettingInput(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	userID := msg.From.ID

	h.mu.Lock()
	setting, ok := h.pending[chatID]
	h.mu.Unlock()
	if !ok {
		return nil
	}

	if !h.tg.IsAdmin(chatID, userID, msg.Chat.Type) {
		settings := h.store.Get(chatID)
		h.logger.Info("setting input denied, not admin", "chat_id", chatID, "user_id", userID)
		return h.tg.SendText(chatID,
			fmt.Sprintf("Yo, slime fam! 😅 Only admins can update %s settings. Ask an admin to make changes! 👑", settings.Ticker),
		)
	}

	value := strings.TrimSpace(msg.Text)

	var reply string
	switch setting {
	case "set_character":
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.MainCharacter = value
			s.Characters = []string{value}
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Main Character to %s 💦", value)

	case "set_image_url":
		if !validURL(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid URL. Try again with a valid URL (e.g., 'https://example.com/image.jpg')")
		}
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.CharacterImage = value
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Character Image to %s 💦", value)

	case "set_ca":
		if !contractRe.MatchString(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid contract address. Try again with a valid address (e.g., '0x123::module::TYPE')")
		}
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.ContractAddress = value
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Contract Address to %s 💦", value)

	case "set_tg":
		if !validURL(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid URL. Try again with a valid Telegram URL (e.g., 'https://t.me/newgroup')")
		}
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.Telegram = value
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Telegram to %s 💦", value)

	case "set_x":
		if !validURL(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid URL. Try again with a valid Twitter/X URL (e.g., 'https://x.com/newaccount')")
		}
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.Twitter = value
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Twitter/X to %s 💦", value)

	case "set_web":
		if !validURL(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid URL. Try again with a valid website URL (e.g., 'https://newwebsite.com')")
		}
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.Website = value
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Website to %s 💦", value)

	case "set_ticker":
		if !tickerRe.MatchString(value) {
			return h.tg.SendText(chatID, "Yo, slime! 😅 Invalid ticker. Try again with a valid ticker (e.g., '$NEWCOIN')")
		}
		imageURL := h.search.SearchImageURL(ctx, value)
		h.store.Update(chatID, func(s *store.ChatSettings) {
			s.Ticker = value
			s.CharacterImage = imageURL
		})
		reply = fmt.Sprintf("Yo, slime fam! Updated Ticker to %s 💦", value)

	default:
		h.mu.Lock()
		delete(h.pending, chatID)
		h.mu.Unlock()
		return nil
	}

	h.logger.Info("setting updated", "chat_id", chatID, "setting", setting, "value", value)

	h.mu.Lock()
	delete(h.pending, chatID)
	h.mu.Unlock()

	return h.tg.SendText(chatID, reply)
}

func validURL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
