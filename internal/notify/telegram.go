// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package notify sends a digest of the papers recorded in a run.
package notify

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/pdiddy/paper-digest/pkg/types"
)

// telegramEndpoint is the Bot API URL format (token, method). Declared as
// a var so tests can substitute an httptest server.
var telegramEndpoint = tgbotapi.APIEndpoint

// maxMessageLen is the Bot API limit on one message's text.
const maxMessageLen = 4096

// Telegram posts digests to one chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram connects to the Bot API with the configured token. It
// returns nil without error when no token or chat is configured.
func NewTelegram(cfg types.NotifyConfig) (*Telegram, error) {
	if cfg.TelegramToken == "" || cfg.ChatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, telegramEndpoint, &http.Client{Timeout: 15 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("connecting to Telegram: %w", err)
	}
	return &Telegram{api: api, chatID: cfg.ChatID}, nil
}

// SendDigest posts the Related papers among recorded. Nothing is sent
// when none are Related. Long digests are split across messages.
func (t *Telegram) SendDigest(recorded []types.Paper) (int, error) {
	var related []types.Paper
	for _, p := range recorded {
		if p.Analysis != nil && p.Analysis.Relevance == types.RelevanceRelated {
			related = append(related, p)
		}
	}
	if len(related) == 0 {
		return 0, nil
	}

	sent := 0
	for _, text := range Digest(related, maxMessageLen) {
		msg := tgbotapi.NewMessage(t.chatID, text)
		msg.DisableWebPagePreview = true
		if _, err := t.api.Send(msg); err != nil {
			return sent, fmt.Errorf("sending digest: %w", err)
		}
		sent++
	}
	return sent, nil
}

// Digest renders papers as one or more message texts, each at most limit
// runes. An entry is never split across messages unless it alone exceeds
// the limit.
func Digest(papers []types.Paper, limit int) []string {
	header := fmt.Sprintf("%d new related paper(s)\n", len(papers))

	var (
		msgs []string
		b    strings.Builder
	)
	b.WriteString(header)
	for i, p := range papers {
		entry := fmt.Sprintf("\n%d. %s\n%s · %s\n%s\n",
			i+1, p.Title, p.PrimaryAuthor, p.PublishedAt.UTC().Format(time.DateOnly), p.CanonicalLink)

		if b.Len() > 0 && runeLen(b.String())+runeLen(entry) > limit {
			msgs = append(msgs, b.String())
			b.Reset()
		}
		b.WriteString(clip(entry, limit))
	}
	if b.Len() > 0 {
		msgs = append(msgs, b.String())
	}
	return msgs
}

func runeLen(s string) int { return len([]rune(s)) }

func clip(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
