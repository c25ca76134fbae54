package handlers

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/billing"
	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/tariffs"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

func (bh *Handlers) HandleTariffsMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	bh.send(ctx, b, chatID, messages.ChooseTariff(), utils.TariffsKeyboard(tariffs.Catalog()))
}

func (bh *Handlers) HandleTariffSelect(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, tariffID string) {
	t, ok := tariffs.Get(tariffID)
	if !ok {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.UnknownTariff())
		return
	}

	pending, err := bh.billing.RequestSubscription(ctx, user.UserID, t)
	if err != nil {
		log.Printf("Error creating invoice user=%d tariff=%s: %v", user.UserID, tariffID, err)
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.send(ctx, b, chatID, messages.ErrorInvoiceFailed(), nil)
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	bh.send(ctx, b, chatID, messages.InvoiceCreated(t.Label), utils.PayKeyboard(pending.PayURL, pending.InvoiceID))
}

// HandleCheckPayment polls the invoice and reports the settlement result.
// Pressing the button twice never credits twice.
func (bh *Handlers) HandleCheckPayment(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, invoiceID string) {
	outcome, sub, err := bh.billing.Confirm(ctx, invoiceID)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownInvoice) {
			bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.PaymentPending())
			return
		}
		log.Printf("Error confirming invoice=%s user=%d: %v", invoiceID, user.UserID, err)
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}

	switch outcome {
	case billing.StillPending:
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.PaymentPending())

	case billing.AlreadySettled:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.send(ctx, b, chatID, messages.PaymentAlreadySettled(), nil)

	case billing.Settled:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.sendSettlementResult(ctx, b, user, chatID, invoiceID, sub)
	}
}

// sendSettlementResult picks the right success message for what the invoice
// actually bought.
func (bh *Handlers) sendSettlementResult(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, invoiceID string, sub *types.Subscription) {
	if sub != nil {
		bh.send(ctx, b, chatID, messages.PaymentSettled(sub.ExpiresAt), nil)
		return
	}

	payment, err := bh.payments.GetPaymentByInvoice(invoiceID)
	if err != nil {
		log.Printf("Error reading settled payment invoice=%s: %v", invoiceID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	switch {
	case payment.TariffID == types.TariffTopup:
		bh.send(ctx, b, chatID, messages.TopupSettled(bh.billing.CreditRub(payment.AmountUSD)), nil)
	case strings.HasPrefix(payment.TariffID, billing.TariffVPNPrefix):
		bh.deliverVPNConfig(ctx, b, chatID, strings.TrimPrefix(payment.TariffID, billing.TariffVPNPrefix))
	default:
		bh.send(ctx, b, chatID, messages.PaymentAlreadySettled(), nil)
	}
}
