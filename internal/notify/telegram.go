package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"storefront/internal/events"
)

const queueSize = 64

// DefaultRetryDelays is the backoff between delivery attempts.
var DefaultRetryDelays = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

// Sender is the subset of tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts transition announcements to a Telegram chat.
// Messages are queued by event handlers and delivered by a single worker paced by a rate limiter.
type Notifier struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	delays  []time.Duration
	logger  *zerolog.Logger

	queue   chan string
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewNotifier builds a notifier allowing perMinute messages with a burst of one.
func NewNotifier(sender Sender, chatID int64, perMinute int, logger *zerolog.Logger) *Notifier {
	if perMinute <= 0 {
		perMinute = 20
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Notifier{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		delays:  DefaultRetryDelays,
		logger:  logger,
		queue:   make(chan string, queueSize),
	}
}

// Attach subscribes the notifier to transition events on bus.
func (n *Notifier) Attach(bus *events.EventBus) {
	bus.Subscribe(events.TypeHoursTransition, n.handleHours)
	bus.Subscribe(events.TypeSeasonTransition, n.handleSeason)
}

// Start launches the delivery worker.
func (n *Notifier) Start(ctx context.Context) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.running {
		return
	}
	n.running = true
	stop := make(chan struct{})
	n.stopCh = stop

	n.wg.Add(1)
	go n.run(ctx, stop)
	n.logger.Info().Int64("chat_id", n.chatID).Msg("Telegram notifier started")
}

// Stop halts the worker. Queued messages are dropped.
func (n *Notifier) Stop() {
	n.mu.Lock()
	if !n.running {
		n.mu.Unlock()
		return
	}
	n.running = false
	close(n.stopCh)
	n.mu.Unlock()

	n.wg.Wait()
	n.logger.Info().Msg("Telegram notifier stopped")
}

func (n *Notifier) run(ctx context.Context, stop <-chan struct{}) {
	defer n.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case text := <-n.queue:
			if err := n.limiter.Wait(ctx); err != nil {
				return
			}
			if err := n.deliver(ctx, stop, text); err != nil {
				n.logger.Error().Err(err).Int64("chat_id", n.chatID).Msg("Failed to send notification")
			}
		}
	}
}

// deliver sends text, honouring Telegram's retry_after on 429 and giving up on 400/403.
// A nil stop never fires.
func (n *Notifier) deliver(ctx context.Context, stop <-chan struct{}, text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)

	var lastErr error
	for attempt := 0; attempt <= len(n.delays); attempt++ {
		_, err := n.sender.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == len(n.delays) {
			break
		}

		wait := n.delays[attempt]
		var tgErr *tgbotapi.Error
		if errors.As(err, &tgErr) {
			switch tgErr.Code {
			case 429:
				if tgErr.RetryAfter > 0 {
					wait = time.Duration(tgErr.RetryAfter) * time.Second
				}
			case 400, 403:
				return fmt.Errorf("telegram rejected message: %w", err)
			}
		}

		n.logger.Warn().Err(err).Int("attempt", attempt+1).Dur("delay", wait).Msg("Retrying notification")
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return lastErr
		}
	}
	return fmt.Errorf("after %d attempts: %w", len(n.delays)+1, lastErr)
}

func (n *Notifier) enqueue(text string) {
	select {
	case n.queue <- text:
	default:
		n.logger.Warn().Str("text", text).Msg("Notification queue full, dropping message")
	}
}

func (n *Notifier) handleHours(ev events.Event) error {
	var p events.HoursTransition
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode hours transition: %w", err)
	}
	n.enqueue(FormatHours(p))
	return nil
}

func (n *Notifier) handleSeason(ev events.Event) error {
	var p events.SeasonTransition
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode season transition: %w", err)
	}
	n.enqueue(FormatSeason(p))
	return nil
}

// FormatHours renders an open/closed announcement, e.g. "Lanka Auto Parts is now OPEN. Closes in 10h 0m".
func FormatHours(p events.HoursTransition) string {
	state := "CLOSED"
	if p.IsOpen {
		state = "OPEN"
	}
	return fmt.Sprintf("%s is now %s. %s", storeName(p.Store), state, p.Message)
}

// FormatSeason renders a theme change announcement.
func FormatSeason(p events.SeasonTransition) string {
	if !p.IsHoliday {
		return fmt.Sprintf("%s: seasonal theme ended", storeName(p.Store))
	}
	name := p.DisplayName
	if name == "" {
		name = p.ThemeID
	}
	if len(p.Effects) == 0 {
		return fmt.Sprintf("%s season: %s", storeName(p.Store), name)
	}
	return fmt.Sprintf("%s season: %s (%s)", storeName(p.Store), name, strings.Join(p.Effects, ", "))
}

func storeName(s string) string {
	if s == "" {
		return "Store"
	}
	return s
}
