package handlers

import (
	"context"
	"log"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

// HandleCheckSubscription re-runs the gate check when the user claims to
// have joined everything.
func (bh *Handlers) HandleCheckSubscription(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64) {
	unmet, err := bh.checker.Unmet(ctx, user.UserID)
	if err != nil {
		log.Printf("Gate re-check failed user=%d: %v", user.UserID, err)
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}

	if len(unmet) > 0 {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.GateStillUnmet())
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	bh.send(ctx, b, chatID, messages.GatePassed(), utils.MainMenuKeyboard())
}
