package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
	"github.com/ilyasmaxutov/towel-tracker/internal/store"
	"github.com/ilyasmaxutov/towel-tracker/internal/token"
)

const defaultThresholdDays = 3

// ensureUser makes sure a user row and a persisted self-group exist;
// first contact creates both with defaults.
func (r *Router) ensureUser(ctx context.Context, chatID int64) (domain.User, error) {
	u, err := r.repo.GetUser(ctx, chatID)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}
	u = domain.User{
		ActorID:    chatID,
		TZ:         r.defaults.TZ,
		NotifyHour: r.defaults.NotifyHour,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		return domain.User{}, err
	}
	if _, err := r.resolver.ResolveGroups(ctx, chatID, true); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Profile initialization error. Please try again later.")
		return
	}
	msg := tgbotapi.NewMessage(chatID, startText)
	msg.ReplyMarkup = mainMenuKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleList(ctx context.Context, chatID int64) {
	if _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error reading your slots.")
		return
	}
	views, err := r.slots.List(ctx, chatID)
	if err != nil {
		r.log.Error("list slots failed", zap.Error(err))
		r.sendText(chatID, "Error reading your slots.")
		return
	}
	if len(views) == 0 {
		r.sendText(chatID, listEmptyText)
		return
	}
	lines := make([]string, 0, len(views))
	for _, v := range views {
		lines = append(lines, slotLine(v))
	}
	msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	msg.ReplyMarkup = refreshKeyboard(views)
	_, _ = r.bot.Send(msg)
}

// --- Add flow ---

func (r *Router) handleAdd(ctx context.Context, chatID int64, args string) {
	if _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error opening your profile.")
		return
	}
	if args == "" {
		r.sendText(chatID, addPromptText)
		r.setPending(chatID, pendingAdd)
		return
	}
	r.createSlotFromText(ctx, chatID, args)
}

// createSlotFromText parses "name; room; days" (room and days optional).
func (r *Router) createSlotFromText(ctx context.Context, chatID int64, text string) {
	parts := strings.Split(text, ";")
	name := strings.TrimSpace(parts[0])
	room := ""
	days := defaultThresholdDays
	if len(parts) > 1 {
		room = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		d, err := domain.ParseThresholdDays(parts[2])
		if err != nil {
			r.sendText(chatID, "Could not read the day count. Example: Hand towel; Bath; 3")
			return
		}
		days = d
	}

	v, err := r.slots.Create(ctx, name, chatID, room, days)
	if err != nil {
		if errors.Is(err, registry.ErrValidation) {
			r.sendText(chatID, "The slot needs a name. Example: Hand towel; Bath; 3")
			return
		}
		r.log.Error("create slot failed", zap.Error(err))
		r.sendText(chatID, "Could not create the slot.")
		return
	}
	r.sendText(chatID, "Added: "+slotLine(v))
}

// --- Room batch refresh ---

func (r *Router) handleRoom(ctx context.Context, chatID int64, room string) {
	if room == "" {
		r.sendText(chatID, roomPromptText)
		r.setPending(chatID, pendingRoom)
		return
	}
	r.refreshRoom(ctx, chatID, room)
}

func (r *Router) refreshRoom(ctx context.Context, chatID int64, room string) {
	n, err := r.slots.RefreshByRoom(ctx, chatID, room)
	if err != nil {
		r.log.Error("room refresh failed", zap.Error(err), zap.String("room", room))
		r.sendText(chatID, "Could not refresh the room.")
		return
	}
	if n == 0 {
		r.sendText(chatID, "No slots in room \""+room+"\".")
		return
	}
	r.sendText(chatID, fmt.Sprintf("Refreshed %s: %d slot(s)", strings.TrimSpace(room), n))
}

// --- Settings ---

func (r *Router) handleSettings(ctx context.Context, chatID int64) {
	u, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error opening settings.")
		return
	}
	body := fmt.Sprintf("🧾 Your settings:\n• Timezone: %s\n• Reminder hour: %02d:00", u.TZ, u.NotifyHour)
	msg := tgbotapi.NewMessage(chatID, body)
	msg.ReplyMarkup = settingsInlineKeyboard()
	_, _ = r.bot.Send(msg)
}

// --- Magic link ---

func (r *Router) handleLink(ctx context.Context, chatID int64) {
	if _, err := r.ensureUser(ctx, chatID); err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Error opening your profile.")
		return
	}
	magic, err := r.tokens.Issue(strconv.FormatInt(chatID, 10), token.MagicLinkTTL)
	if err != nil {
		r.log.Error("magic link issue failed", zap.Error(err))
		r.sendText(chatID, "Could not create a login link.")
		return
	}
	r.sendText(chatID, "Your login link (valid 15 minutes):\n"+r.baseURL+"/api/login?token="+magic)
}

// --- Free-form dispatcher (for all pending flows) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	switch r.getPending(chatID) {
	case pendingAdd:
		r.clearPending(chatID)
		r.createSlotFromText(ctx, chatID, text)

	case pendingRoom:
		r.clearPending(chatID)
		r.refreshRoom(ctx, chatID, text)

	case pendingTZ:
		r.clearPending(chatID)
		tz, err := domain.ValidateTZ(text)
		if err != nil {
			r.sendText(chatID, "Invalid timezone. Example: Europe/Moscow")
			return
		}
		r.updateTZ(ctx, chatID, tz)

	case pendingHour:
		r.clearPending(chatID)
		h, err := domain.ParseHour(text)
		if err != nil {
			r.sendText(chatID, "Invalid hour. Send a number 0–23, e.g. 9")
			return
		}
		r.updateHour(ctx, chatID, h)

	default:
		// No pending flow: ignore free-form message
	}
}

// --- Refresh callback ---

func (r *Router) handleRefreshCallback(ctx context.Context, chatID int64, slotID, cbID string) {
	err := r.slots.Refresh(ctx, slotID, chatID)
	switch {
	case err == nil:
		_ = r.answerCallback(cbID, "Refreshed ✅")
	case errors.Is(err, registry.ErrForbidden):
		_ = r.answerCallback(cbID, "This slot belongs to another group.")
	case errors.Is(err, store.ErrNotFound):
		_ = r.answerCallback(cbID, "This slot no longer exists.")
	default:
		r.log.Error("refresh failed", zap.Error(err), zap.String("slotID", slotID))
		_ = r.answerCallback(cbID, "Refresh failed, try again.")
	}
}

// --- Timezone flow ---

func (r *Router) askTZPresets(_ context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	msg := tgbotapi.NewMessage(chatID, "Choose a timezone or enter your own (Region/City):")
	msg.ReplyMarkup = tzPresetsKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleTZCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	if data == "tz:custom" {
		r.sendText(chatID, "Enter timezone (e.g., Europe/Moscow):")
		r.setPending(chatID, pendingTZ)
		return
	}
	tz, err := domain.ValidateTZ(strings.TrimPrefix(data, "tz:"))
	if err != nil {
		r.sendText(chatID, "Invalid timezone. Example: Europe/Moscow")
		return
	}
	r.updateTZ(ctx, chatID, tz)
}

func (r *Router) updateTZ(ctx context.Context, chatID int64, tz string) {
	u, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Could not save timezone.")
		return
	}
	u.TZ = tz
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		r.log.Error("updateTZ failed", zap.Error(err))
		r.sendText(chatID, "Could not save timezone.")
		return
	}
	r.sendText(chatID, "Timezone updated: "+tz)
}

// --- Reminder hour flow ---

func (r *Router) askHourPresets(_ context.Context, chatID int64, cbID string) {
	_ = r.answerCallback(cbID, "")
	msg := tgbotapi.NewMessage(chatID, "When should I remind you? (your local time)")
	msg.ReplyMarkup = hourPresetsKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleHourCallback(ctx context.Context, chatID int64, data, cbID string) {
	_ = r.answerCallback(cbID, "")
	if data == "hour:custom" {
		r.sendText(chatID, "Enter the hour as a number 0–23:")
		r.setPending(chatID, pendingHour)
		return
	}
	h, err := domain.ParseHour(strings.TrimPrefix(data, "hour:"))
	if err != nil {
		r.sendText(chatID, "Invalid hour. Send a number 0–23.")
		return
	}
	r.updateHour(ctx, chatID, h)
}

func (r *Router) updateHour(ctx context.Context, chatID int64, hour int) {
	u, err := r.ensureUser(ctx, chatID)
	if err != nil {
		r.log.Error("ensureUser failed", zap.Error(err))
		r.sendText(chatID, "Could not save the reminder hour.")
		return
	}
	u.NotifyHour = hour
	if err := r.repo.UpsertUser(ctx, u); err != nil {
		r.log.Error("updateHour failed", zap.Error(err))
		r.sendText(chatID, "Could not save the reminder hour.")
		return
	}
	r.sendText(chatID, fmt.Sprintf("Reminder hour updated: %02d:00", hour))
}
