package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/access"
	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
	"github.com/ilyasmaxutov/towel-tracker/internal/token"
)

// Pending state keys used in conversational flows.
const (
	pendingAdd  = "await_add_text"
	pendingRoom = "await_room_text"
	pendingTZ   = "await_tz_text"
	pendingHour = "await_hour_text"
)

// Defaults applied to users on first contact.
type Defaults struct {
	TZ         string
	NotifyHour int
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot      *tgbotapi.BotAPI
	log      *zap.Logger
	repo     store.Repo
	slots    *registry.Service
	resolver *access.Resolver
	tokens   *token.Service
	baseURL  string
	defaults Defaults
	state    map[int64]string // chatID -> pending state
	mu       sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(bot *tgbotapi.BotAPI, log *zap.Logger, repo store.Repo, slots *registry.Service, tokens *token.Service, baseURL string, defaults Defaults) *Router {
	return &Router{
		bot:      bot,
		log:      log,
		repo:     repo,
		slots:    slots,
		resolver: access.NewResolver(repo),
		tokens:   tokens,
		baseURL:  strings.TrimRight(baseURL, "/"),
		defaults: defaults,
		state:    make(map[int64]string),
	}
}

// setPending sets a pending state for a chat (non-persistent, in-memory).
func (r *Router) setPending(chatID int64, s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = s
}

// getPending returns current pending state for a chat.
func (r *Router) getPending(chatID int64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state[chatID]
}

// clearPending clears a pending state for a chat.
func (r *Router) clearPending(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.state, chatID)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/list"):
			r.handleList(ctx, chatID)
		case strings.HasPrefix(text, "/add"):
			r.handleAdd(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/add")))
		case strings.HasPrefix(text, "/room"):
			r.handleRoom(ctx, chatID, strings.TrimSpace(strings.TrimPrefix(text, "/room")))
		case strings.HasPrefix(text, "/settings"):
			r.handleSettings(ctx, chatID)
		case strings.HasPrefix(text, "/link"):
			r.handleLink(ctx, chatID)
		default:
			// Free-form text used by the add/room/tz/hour flows
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		data := cb.Data
		chatID := cb.Message.Chat.ID

		switch {
		case strings.HasPrefix(data, "refresh:"):
			r.handleRefreshCallback(ctx, chatID, strings.TrimPrefix(data, "refresh:"), cb.ID)

		case data == "set_tz":
			r.askTZPresets(ctx, chatID, cb.ID)
		case strings.HasPrefix(data, "tz:"):
			r.handleTZCallback(ctx, chatID, data, cb.ID)

		case data == "set_hour":
			r.askHourPresets(ctx, chatID, cb.ID)
		case strings.HasPrefix(data, "hour:"):
			r.handleHourCallback(ctx, chatID, data, cb.ID)

		default:
			// Unknown callback — ignore silently
		}
		return
	}
}

// SendMessage sends a plain text message to the given chat.
func (r *Router) SendMessage(chatID int64, text string) error {
	_, err := r.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendReminder sends the overdue digest with one refresh button per slot.
// This makes Router satisfy scheduler.Sender.
func (r *Router) SendReminder(chatID int64, views []registry.SlotView) error {
	lines := make([]string, 0, len(views)+1)
	lines = append(lines, reminderTitle)
	for _, v := range views {
		lines = append(lines, slotLine(v))
	}
	msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	msg.ReplyMarkup = refreshKeyboard(views)
	_, err := r.bot.Send(msg)
	return err
}
