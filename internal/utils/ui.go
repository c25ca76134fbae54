package utils

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/tariffs"
	"github.com/extramods/modgate-bot/types"
)

// Callback data values shared between keyboard builders and handlers.
const (
	CallbackCheckSubscription = "check_subscription"

	CallbackTariffPrefix       = "tariff:"
	CallbackCheckPaymentPrefix = "check_payment:"
	CallbackTopupPrefix        = "topup:"
	CallbackModPrefix          = "mod:"
	CallbackVPNPrefix          = "vpn:"

	CallbackAdminGrant     = "admin_grant"
	CallbackAdminGate      = "admin_gate"
	CallbackAdminGateAdd   = "gate_add"
	CallbackAdminGatePfx   = "gate_del:"
	CallbackAdminMods      = "admin_mods"
	CallbackAdminModAdd    = "mod_add"
	CallbackAdminModPfx    = "mod_del:"
	CallbackAdminBroadcast = "admin_broadcast"
)

// Main menu reply-keyboard labels; the dispatcher matches on them verbatim.
const (
	ButtonTariffs       = "💎 Тарифы"
	ButtonMods          = "📦 Моды"
	ButtonKey           = "🔑 Ключ"
	ButtonSubscriptions = "📋 Мои подписки"
	ButtonBalance       = "💰 Баланс"
	ButtonVPN           = "🌍 VPN"
)

func MainMenuKeyboard() models.ReplyKeyboardMarkup {
	return models.ReplyKeyboardMarkup{
		Keyboard: [][]models.KeyboardButton{
			{{Text: ButtonTariffs}, {Text: ButtonMods}},
			{{Text: ButtonKey}, {Text: ButtonSubscriptions}},
			{{Text: ButtonBalance}, {Text: ButtonVPN}},
		},
		ResizeKeyboard: true,
	}
}

// GateKeyboard links every unmet channel plus the re-check button.
func GateKeyboard(channels []*types.GateChannel) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text: "📢 " + ch.Title,
			URL:  ch.URL(),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "✅ Проверить подписку",
		CallbackData: CallbackCheckSubscription,
	}})
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func TariffsKeyboard(catalog []tariffs.Tariff) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(catalog))
	for _, t := range catalog {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("%s — %.2f$", t.Label, t.PriceUSD),
			CallbackData: CallbackTariffPrefix + t.ID,
		}})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func PayKeyboard(payURL, invoiceID string) models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "💳 Оплатить", URL: payURL}},
			{{Text: "🔄 Проверить оплату", CallbackData: CallbackCheckPaymentPrefix + invoiceID}},
		},
	}
}

func TopupKeyboard() models.InlineKeyboardMarkup {
	amounts := []int{1, 5, 10, 25, 50}
	row := make([]models.InlineKeyboardButton, 0, len(amounts))
	for _, a := range amounts {
		row = append(row, models.InlineKeyboardButton{
			Text:         fmt.Sprintf("%d$", a),
			CallbackData: fmt.Sprintf("%s%d", CallbackTopupPrefix, a),
		})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: [][]models.InlineKeyboardButton{row}}
}

func ModChannelsKeyboard(channels []*types.ModChannel) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         "📦 " + ch.Title,
			CallbackData: fmt.Sprintf("%s%d", CallbackModPrefix, ch.ID),
		}})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func VPNKeyboard(countries []string) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         c,
			CallbackData: CallbackVPNPrefix + c,
		}})
	}
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func AdminMenuKeyboard() models.InlineKeyboardMarkup {
	return models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: "🎁 Выдать подписку", CallbackData: CallbackAdminGrant}},
			{{Text: "📢 Каналы-спонсоры", CallbackData: CallbackAdminGate}},
			{{Text: "📦 Каналы с модами", CallbackData: CallbackAdminMods}},
			{{Text: "📣 Рассылка", CallbackData: CallbackAdminBroadcast}},
		},
	}
}

func GateAdminKeyboard(channels []*types.GateChannel) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         fmt.Sprintf("❌ %s (%s)", ch.Title, ch.Username),
			CallbackData: fmt.Sprintf("%s%d", CallbackAdminGatePfx, ch.ID),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "➕ Добавить канал",
		CallbackData: CallbackAdminGateAdd,
	}})
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func ModAdminKeyboard(channels []*types.ModChannel) models.InlineKeyboardMarkup {
	rows := make([][]models.InlineKeyboardButton, 0, len(channels)+1)
	for _, ch := range channels {
		rows = append(rows, []models.InlineKeyboardButton{{
			Text:         "❌ " + ch.Title,
			CallbackData: fmt.Sprintf("%s%d", CallbackAdminModPfx, ch.ID),
		}})
	}
	rows = append(rows, []models.InlineKeyboardButton{{
		Text:         "➕ Добавить канал",
		CallbackData: CallbackAdminModAdd,
	}})
	return models.InlineKeyboardMarkup{InlineKeyboard: rows}
}
