// Package notify tells studio managers about paid and cancelled bookings
// and forwards contact inquiries.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"pixelperfect/internal/events"
	"pixelperfect/internal/model"
)

// TelegramSender is the part of tgbotapi.BotAPI used here.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ServiceLookup resolves catalog services.
type ServiceLookup interface {
	Get(ctx context.Context, id string) (model.Service, error)
}

// Subscriber is the part of events.Bus used here.
type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// TelegramNotifier sends booking messages to manager chats.
type TelegramNotifier struct {
	sender  TelegramSender
	chatIDs []int64
	catalog ServiceLookup
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewTelegramBot connects to the Bot API.
func NewTelegramBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	bot.Debug = debug
	return bot, nil
}

// NewTelegramNotifier creates a notifier. Telegram allows about 30
// messages per second per bot.
func NewTelegramNotifier(sender TelegramSender, chatIDs []int64, catalog ServiceLookup, logger *zerolog.Logger) *TelegramNotifier {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "notify").Logger()
	}
	return &TelegramNotifier{
		sender:  sender,
		chatIDs: chatIDs,
		catalog: catalog,
		limiter: rate.NewLimiter(rate.Every(time.Second/30), 1),
		logger:  l,
	}
}

// Register subscribes the notifier to the events it reports.
func (n *TelegramNotifier) Register(bus Subscriber) {
	bus.Subscribe(events.BookingPaid, n.Handle)
	bus.Subscribe(events.BookingCancelled, n.Handle)
	bus.Subscribe(events.BookingRefunded, n.Handle)
	bus.Subscribe(events.ContactReceived, n.Handle)
}

// Handle formats the event and sends it to every manager chat.
func (n *TelegramNotifier) Handle(ctx context.Context, env events.Envelope) error {
	text, err := n.render(ctx, env)
	if err != nil || text == "" {
		return err
	}

	var errs []error
	for _, chatID := range n.chatIDs {
		if err := n.limiter.Wait(ctx); err != nil {
			return err
		}
		if _, err := n.sender.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).
				Str("event_type", env.EventType).
				Str("correlation_id", env.CorrelationID).
				Msg("send notification")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (n *TelegramNotifier) render(ctx context.Context, env events.Envelope) (string, error) {
	if env.EventType == events.ContactReceived {
		c, err := events.Decode[model.Contact](env)
		if err != nil {
			return "", err
		}
		return FormatContact(c), nil
	}
	b, err := events.Decode[model.Booking](env)
	if err != nil {
		return "", err
	}
	return n.Format(ctx, env.EventType, b), nil
}

// Format renders the message for an event, or "" for events not reported.
func (n *TelegramNotifier) Format(ctx context.Context, eventType string, b model.Booking) string {
	service := b.ServiceID
	if n.catalog != nil {
		if svc, err := n.catalog.Get(ctx, b.ServiceID); err == nil {
			service = svc.Name
		}
	}

	switch eventType {
	case events.BookingPaid:
		return fmt.Sprintf("✅ New booking paid\n\n📷 %s\n📅 %s %s\n💵 $%d\n🧾 %s\n🆔 %s",
			service, b.Date, b.Time, b.TotalAmount, b.PaymentID, b.ID)
	case events.BookingCancelled:
		return fmt.Sprintf("❌ Booking cancelled\n\n📷 %s\n📅 %s %s\n🆔 %s",
			service, b.Date, b.Time, b.ID)
	case events.BookingRefunded:
		return fmt.Sprintf("↩️ Booking refunded\n\n📷 %s\n💵 $%d\n🆔 %s",
			service, b.TotalAmount, b.ID)
	}
	return ""
}

// FormatContact renders a contact inquiry.
func FormatContact(c model.Contact) string {
	from := c.Email
	if c.Phone != "" {
		from += ", " + c.Phone
	}
	return fmt.Sprintf("✉️ New inquiry: %s\n\n👤 %s\n📨 %s\n\n%s\n🆔 %s",
		c.Subject, c.Name, from, c.Message, c.ID)
}
