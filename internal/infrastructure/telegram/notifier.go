package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"DisasterTriage/internal/domain"
	"DisasterTriage/internal/ports"
)

// Notifier sends urgent triage records to a Telegram chat via bot API.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	channel string
	limiter *rate.Limiter
}

var _ ports.AlertNotifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier. chatID is either a
// numeric chat id or an @channel username. perSecond caps outgoing
// messages; <= 0 means one per second.
func NewNotifier(botToken, chatID string, perSecond float64) (*Notifier, error) {
	return newNotifier(botToken, chatID, tgbotapi.APIEndpoint, &http.Client{Timeout: 5 * time.Second}, perSecond)
}

func newNotifier(botToken, chatID, endpoint string, client *http.Client, perSecond float64) (*Notifier, error) {
	if botToken == "" || chatID == "" {
		return nil, errors.New("telegram notifier misconfigured")
	}
	n := &Notifier{}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		n.chatID = id
	} else if strings.HasPrefix(chatID, "@") {
		n.channel = chatID
	} else {
		return nil, fmt.Errorf("telegram chat id %q is neither numeric nor @channel", chatID)
	}

	bot, err := tgbotapi.NewBotAPIWithClient(botToken, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	n.bot = bot

	if perSecond <= 0 {
		perSecond = 1
	}
	n.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	return n, nil
}

// Alert posts a plain-text summary of record, waiting for the rate limiter.
func (n *Notifier) Alert(ctx context.Context, record domain.TriageRecord) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	text := FormatAlert(record)
	var msg tgbotapi.MessageConfig
	if n.channel != "" {
		msg = tgbotapi.NewMessageToChannel(n.channel, text)
	} else {
		msg = tgbotapi.NewMessage(n.chatID, text)
	}
	msg.DisableWebPagePreview = true

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send alert %s: %w", record.ID(), err)
	}
	return nil
}

// FormatAlert renders the message an operator sees.
func FormatAlert(record domain.TriageRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] urgency %d/10 | %s (%.0f%%)\n",
		strings.ToUpper(string(record.Urgency.Level)),
		record.Urgency.Score,
		record.Classification.PredictedType,
		record.Classification.Confidence*100)
	fmt.Fprintf(&b, "Location: %.4f, %.4f (%s)\n",
		record.Location.Latitude, record.Location.Longitude, record.Location.Provenance)

	if phones := record.Entities.Phones; len(phones) > 0 {
		list := make([]string, 0, len(phones))
		for _, p := range phones {
			list = append(list, p.Raw)
		}
		fmt.Fprintf(&b, "Phones: %s\n", strings.Join(list, ", "))
	}
	if sits := record.Entities.CriticalSituations; len(sits) > 0 {
		list := make([]string, 0, len(sits))
		for _, s := range sits {
			list = append(list, s.Phrase)
		}
		fmt.Fprintf(&b, "Situations: %s\n", strings.Join(list, ", "))
	}
	if len(record.Urgency.MatchedKeywords) > 0 {
		fmt.Fprintf(&b, "Keywords: %s\n", strings.Join(record.Urgency.MatchedKeywords, ", "))
	}

	b.WriteString("\n")
	b.WriteString(record.Message.Text)
	return b.String()
}
