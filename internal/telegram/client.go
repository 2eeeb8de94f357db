package telegram

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Options struct {
	Token      string
	HTTPClient *http.Client
	Logger     *slog.Logger
	Debug      bool

	// Bounded retry for delivery calls only.
	RetryAttempts int
	RetryDelay    time.Duration
}

type Client struct {
	bot           *tgbotapi.BotAPI
	logger        *slog.Logger
	retryAttempts int
	retryDelay    time.Duration
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if opts.HTTPClient == nil {
		return nil, errors.New("http client is nil")
	}

	bot, err := tgbotapi.NewBotAPIWithClient(opts.Token, tgbotapi.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = opts.Debug

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	retryAttempts := opts.RetryAttempts
	if retryAttempts < 1 {
		retryAttempts = 3
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}

	return &Client{
		bot:           bot,
		logger:        logger,
		retryAttempts: retryAttempts,
		retryDelay:    retryDelay,
	}, nil
}

func (c *Client) Username() string {
	return c.bot.Self.UserName
}

type Update = tgbotapi.Update

type UpdatesOptions struct {
	Timeout time.Duration
}

func (c *Client) Updates(opts UpdatesOptions) tgbotapi.UpdatesChannel {
	u := tgbotapi.NewUpdate(0)
	if opts.Timeout > 0 {
		u.Timeout = int(opts.Timeout.Seconds())
	} else {
		u.Timeout = 30
	}
	return c.bot.GetUpdatesChan(u)
}

func (c *Client) StopUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *Client) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = c.bot.Request(wh)
	return err
}

func (c *Client) SendTyping(chatID int64) {
	_, _ = c.bot.Send(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (c *Client) SendText(chatID int64, text string) error {
	parts := splitByBytes(text, 4096)
	for _, p := range parts {
		msg := tgbotapi.NewMessage(chatID, p)
		if err := c.withRetry(func() error {
			_, err := c.bot.Send(msg)
			return err
		}); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) SendTextWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return c.withRetry(func() error {
		_, err := c.bot.Send(msg)
		return err
	})
}

// SendPhotoURL delivers a photo by its remote URL; Telegram fetches the
// bytes itself.
func (c *Client) SendPhotoURL(chatID int64, photoURL string, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	if caption != "" {
		photo.Caption = truncateByBytes(caption, 1024)
	}

	return c.withRetry(func() error {
		_, err := c.bot.Send(photo)
		return err
	})
}

func (c *Client) AnswerCallback(callbackID string) {
	_, _ = c.bot.Request(tgbotapi.NewCallback(callbackID, ""))
}

// IsAdmin reports whether userID may change the chat's settings.
// Private chats bypass the check; anything that is not a group or a
// supergroup is denied. A failed membership lookup denies.
func (c *Client) IsAdmin(chatID int64, userID int64, chatType string) bool {
	if chatType == "private" {
		return true
	}
	if chatType != "group" && chatType != "supergroup" {
		c.logger.Warn("admin check on non-group chat denied", "chat_id", chatID, "type", chatType)
		return false
	}

	member, err := c.bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: chatID,
			UserID: userID,
		},
	})
	if err != nil {
		c.logger.Error("admin check failed", "chat_id", chatID, "user_id", userID, "err", err)
		return false
	}

	return member.Status == "administrator" || member.Status == "creator"
}

// withRetry wraps a single delivery call in a bounded retry with a
// fixed delay. It is never applied around the generation pipeline.
func (c *Client) withRetry(fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < c.retryAttempts-1 {
			c.logger.Warn("delivery failed, retrying", "attempt", attempt+1, "err", lastErr)
			time.Sleep(c.retryDelay)
		}
	}
	c.logger.Error("delivery failed", "attempts", c.retryAttempts, "err", lastErr)
	return lastErr
}

func splitByBytes(text string, maxBytes int) []string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return []string{text}
	}

	var out []string
	var buf strings.Builder
	buf.Grow(maxBytes)

	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len() > 0 && buf.Len()+runeBytes > maxBytes {
			out = append(out, buf.String())
			buf.Reset()
		}
		buf.WriteRune(r)
	}

	if buf.Len() > 0 {
		out = append(out, buf.String())
	}

	return out
}

func truncateByBytes(text string, maxBytes int) string {
	if len(text) <= maxBytes || maxBytes <= 0 {
		return text
	}

	var buf strings.Builder
	buf.Grow(maxBytes)
	for _, r := range text {
		runeBytes := utf8.RuneLen(r)
		if runeBytes < 0 {
			runeBytes = len(string(r))
		}

		if buf.Len()+runeBytes > maxBytes {
			break
		}
		buf.WriteRune(r)
	}
	return buf.String()
}
