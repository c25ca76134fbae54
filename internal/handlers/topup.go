package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

func (bh *Handlers) HandleBalance(ctx context.Context, b *bot.Bot, user *types.User, chatID int64) {
	// Re-read the row: the context copy may predate a settled topup.
	fresh, err := bh.users.GetUser(user.UserID)
	if err != nil {
		log.Printf("Error reading balance user=%d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	text := messages.Balance(fresh.Balance) + "\n\n" + messages.TopupChooseAmount()
	bh.send(ctx, b, chatID, text, utils.TopupKeyboard())
}

func (bh *Handlers) HandleTopupSelect(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, rawAmount string) {
	amount, err := strconv.ParseFloat(rawAmount, 64)
	if err != nil || amount <= 0 {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	pending, err := bh.billing.RequestTopup(ctx, user.UserID, amount)
	if err != nil {
		log.Printf("Error creating topup invoice user=%d: %v", user.UserID, err)
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.send(ctx, b, chatID, messages.ErrorInvoiceFailed(), nil)
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	label := fmt.Sprintf("Пополнение %.0f$", amount)
	bh.send(ctx, b, chatID, messages.InvoiceCreated(label), utils.PayKeyboard(pending.PayURL, pending.InvoiceID))
}
