package handlers

import (
	"context"
	"fmt"
	"log"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/billing"
	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

const vpnPriceUSD = 1.0

// vpnServers maps a storefront country to its WireGuard endpoint config.
var vpnServers = map[string]string{
	"🇫🇮 Финляндия":  "wg://fi1.example.net:51820?pub=4Zc3...",
	"🇩🇪 Германия":   "wg://de1.example.net:51820?pub=9Kf1...",
	"🇳🇱 Нидерланды": "wg://nl1.example.net:51820?pub=2Mv8...",
}

// Fixed order: map iteration would shuffle the keyboard on every open.
var vpnCountryOrder = []string{"🇫🇮 Финляндия", "🇩🇪 Германия", "🇳🇱 Нидерланды"}

func vpnCountries() []string {
	return vpnCountryOrder
}

func (bh *Handlers) HandleVPNMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	bh.send(ctx, b, chatID, messages.VpnChooseCountry(), utils.VPNKeyboard(vpnCountries()))
}

// HandleVPNSelect sells a one-shot config. Admins get it without an invoice.
func (bh *Handlers) HandleVPNSelect(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, country string) {
	if _, ok := vpnServers[country]; !ok {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.VpnUnavailable())
		return
	}

	if bh.checker.IsAdmin(user.UserID) {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.deliverVPNConfig(ctx, b, chatID, country)
		return
	}

	marker := billing.TariffVPNPrefix + country
	description := fmt.Sprintf("VPN %s | UID %d", country, user.UserID)
	pending, err := bh.billing.RequestDelivery(ctx, user.UserID, marker, vpnPriceUSD, description)
	if err != nil {
		log.Printf("Error creating vpn invoice user=%d: %v", user.UserID, err)
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.send(ctx, b, chatID, messages.ErrorInvoiceFailed(), nil)
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	bh.send(ctx, b, chatID, messages.InvoiceCreated("VPN "+country), utils.PayKeyboard(pending.PayURL, pending.InvoiceID))
}

func (bh *Handlers) deliverVPNConfig(ctx context.Context, b *bot.Bot, chatID int64, country string) {
	config, ok := vpnServers[country]
	if !ok {
		bh.send(ctx, b, chatID, messages.VpnUnavailable(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.VpnConfig(country, config), nil)
}
