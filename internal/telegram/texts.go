package telegram

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ilyasmaxutov/towel-tracker/internal/domain"
	"github.com/ilyasmaxutov/towel-tracker/internal/registry"
)

// UI texts in English
const (
	startText = "👋 I track towel freshness.\n\n" +
		"Add slots with /add, see them with /list, refresh with one tap.\n" +
		"Once a day I will remind you about slots that are overdue.\n\n" +
		"Use /settings for timezone and reminder hour, /link for web access."
	listEmptyText  = "No slots yet. Add one: /add Hand towel; Bath; 3"
	addPromptText  = "Send the new slot as: name; room; days\nExample: Hand towel; Bath; 3"
	roomPromptText = "Which room should I refresh? Send its exact name."
	reminderTitle  = "🧺 Time to change towels:"
)

func statusEmoji(st domain.Status) string {
	switch st {
	case domain.StatusOK:
		return "🟢"
	case domain.StatusWarn:
		return "🟡"
	default:
		return "🔴"
	}
}

// slotLine renders one slot for /list and reminder digests.
func slotLine(v registry.SlotView) string {
	room := v.Room
	if room == "" {
		room = "—"
	}
	return fmt.Sprintf("%s %s · %s · %dd/%dd · score %.0f",
		statusEmoji(v.Status), v.Name, room, v.AgeDays, v.ThresholdDays, v.Score)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/list"),
			tgbotapi.NewKeyboardButton("/settings"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("/add"),
			tgbotapi.NewKeyboardButton("/link"),
		),
	)
}

// refreshKeyboard builds one refresh button per slot, callback-addressed
// by slot id.
func refreshKeyboard(views []registry.SlotView) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(views))
	for _, v := range views {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 "+v.Name, "refresh:"+v.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsInlineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🌍 Timezone", "set_tz"),
			tgbotapi.NewInlineKeyboardButtonData("⏰ Reminder hour", "set_hour"),
		),
	)
}

func hourPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := func(hours ...int) []tgbotapi.InlineKeyboardButton {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(hours))
		for _, h := range hours {
			label := fmt.Sprintf("%02d:00", h)
			btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(label, "hour:"+strconv.Itoa(h)))
		}
		return btns
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row(7, 8, 9, 10),
		row(18, 19, 20, 21),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "hour:custom"),
		),
	)
}

func tzPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Europe/Moscow", "tz:Europe/Moscow"),
			tgbotapi.NewInlineKeyboardButtonData("Europe/Tallinn", "tz:Europe/Tallinn"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Asia/Almaty", "tz:Asia/Almaty"),
			tgbotapi.NewInlineKeyboardButtonData("UTC", "tz:UTC"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "tz:custom"),
		),
	)
}
