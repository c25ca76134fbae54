package handlers

import (
	"context"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/billing"
	"github.com/extramods/modgate-bot/internal/broadcast"
	"github.com/extramods/modgate-bot/internal/channels"
	"github.com/extramods/modgate-bot/internal/config"
	"github.com/extramods/modgate-bot/internal/contextkeys"
	"github.com/extramods/modgate-bot/internal/gate"
	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

type Handlers struct {
	users       types.UserStore
	ledger      types.SubscriptionStore
	payments    types.PaymentStore
	gates       types.GateChannelStore
	mods        types.ModChannelStore
	states      types.StateStore
	billing     *billing.Service
	checker     *gate.Checker
	channels    *channels.Service
	broadcaster *broadcast.Service
	cfg         *config.Config
}

func NewHandlers(
	users types.UserStore,
	ledger types.SubscriptionStore,
	payments types.PaymentStore,
	gates types.GateChannelStore,
	mods types.ModChannelStore,
	states types.StateStore,
	billingSvc *billing.Service,
	checker *gate.Checker,
	channelsSvc *channels.Service,
	broadcaster *broadcast.Service,
	cfg *config.Config,
) *Handlers {
	return &Handlers{
		users:       users,
		ledger:      ledger,
		payments:    payments,
		gates:       gates,
		mods:        mods,
		states:      states,
		billing:     billingSvc,
		checker:     checker,
		channels:    channelsSvc,
		broadcaster: broadcaster,
		cfg:         cfg,
	}
}

func (bh *Handlers) MainHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	user, ok := contextkeys.GetUser(ctx)
	if !ok {
		return
	}
	chatID := bh.getChatIDFromUpdate(update)
	if chatID == 0 {
		return
	}

	messageType, _ := contextkeys.GetMessageType(ctx)
	switch messageType {
	case contextkeys.MessageTypeCommand:
		bh.HandleCommand(ctx, b, update, user)
	case contextkeys.MessageTypeCallback:
		bh.HandleCallback(ctx, b, update, user, chatID)
	case contextkeys.MessageTypeText:
		bh.HandleText(ctx, b, update, user)
	default:
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand(), nil)
	}
}

func (bh *Handlers) HandleCommand(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	chatID := update.Message.Chat.ID
	cmd := strings.Fields(update.Message.Text)[0]
	if strings.Contains(cmd, "@") {
		cmd = strings.SplitN(cmd, "@", 2)[0]
	}

	switch cmd {
	case "/start":
		bh.clearState(user.UserID)
		text := messages.StartWelcome(user.FullName)
		if sub, err := bh.ledger.GetActiveSubscription(user.UserID); err == nil && sub != nil {
			text += "\n\n" + messages.SubscriptionStatus(sub.ExpiresAt)
		}
		bh.send(ctx, b, chatID, text, utils.MainMenuKeyboard())
	case "/admin":
		if !bh.checker.IsAdmin(user.UserID) {
			bh.send(ctx, b, chatID, messages.AdminOnly(), nil)
			return
		}
		bh.send(ctx, b, chatID, messages.AdminMenu(), utils.AdminMenuKeyboard())
	default:
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand(), nil)
	}
}

func (bh *Handlers) HandleCallback(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64) {
	data, _ := contextkeys.GetCallbackData(ctx)
	if data == "" && update.CallbackQuery != nil {
		data = update.CallbackQuery.Data
	}
	data = strings.TrimSpace(data)

	switch {
	case data == utils.CallbackCheckSubscription:
		bh.HandleCheckSubscription(ctx, b, update, user, chatID)
	case strings.HasPrefix(data, utils.CallbackTariffPrefix):
		bh.HandleTariffSelect(ctx, b, update, user, chatID, strings.TrimPrefix(data, utils.CallbackTariffPrefix))
	case strings.HasPrefix(data, utils.CallbackCheckPaymentPrefix):
		bh.HandleCheckPayment(ctx, b, update, user, chatID, strings.TrimPrefix(data, utils.CallbackCheckPaymentPrefix))
	case strings.HasPrefix(data, utils.CallbackTopupPrefix):
		bh.HandleTopupSelect(ctx, b, update, user, chatID, strings.TrimPrefix(data, utils.CallbackTopupPrefix))
	case strings.HasPrefix(data, utils.CallbackModPrefix):
		bh.HandleModSelect(ctx, b, update, user, chatID, strings.TrimPrefix(data, utils.CallbackModPrefix))
	case strings.HasPrefix(data, utils.CallbackVPNPrefix):
		bh.HandleVPNSelect(ctx, b, update, user, chatID, strings.TrimPrefix(data, utils.CallbackVPNPrefix))
	case data == utils.CallbackAdminGrant,
		data == utils.CallbackAdminGate,
		data == utils.CallbackAdminGateAdd,
		data == utils.CallbackAdminMods,
		data == utils.CallbackAdminModAdd,
		data == utils.CallbackAdminBroadcast,
		strings.HasPrefix(data, utils.CallbackAdminGatePfx),
		strings.HasPrefix(data, utils.CallbackAdminModPfx):
		bh.HandleAdminCallback(ctx, b, update, user, chatID, data)
	default:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
	}
}

// HandleText routes free text either into an active admin wizard step or
// onto a main-menu button.
func (bh *Handlers) HandleText(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User) {
	chatID := update.Message.Chat.ID
	text := strings.TrimSpace(update.Message.Text)

	state, err := bh.states.GetState(user.UserID)
	if err != nil {
		log.Printf("Error getting state user=%d: %v", user.UserID, err)
		state = &types.UserState{UserID: user.UserID, ChatID: chatID, State: types.StateIdle}
	}
	if state.State != types.StateIdle {
		bh.HandleWizardStep(ctx, b, user, chatID, state, text)
		return
	}

	switch text {
	case utils.ButtonTariffs:
		bh.HandleTariffsMenu(ctx, b, chatID)
	case utils.ButtonMods:
		bh.HandleModsMenu(ctx, b, chatID)
	case utils.ButtonKey:
		bh.HandleKey(ctx, b, user, chatID)
	case utils.ButtonSubscriptions:
		bh.HandleMySubscriptions(ctx, b, user, chatID)
	case utils.ButtonBalance:
		bh.HandleBalance(ctx, b, user, chatID)
	case utils.ButtonVPN:
		bh.HandleVPNMenu(ctx, b, chatID)
	default:
		bh.send(ctx, b, chatID, messages.ErrorUnknownCommand(), nil)
	}
}

func (bh *Handlers) getChatIDFromUpdate(update *models.Update) int64 {
	if update == nil {
		return 0
	}
	if update.Message != nil {
		return update.Message.Chat.ID
	}
	if update.CallbackQuery != nil {
		if update.CallbackQuery.Message.Message != nil {
			return update.CallbackQuery.Message.Message.Chat.ID
		}
		if update.CallbackQuery.Message.InaccessibleMessage != nil {
			return update.CallbackQuery.Message.InaccessibleMessage.Chat.ID
		}
	}
	return 0
}

func (bh *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   messages.ParseModeHTML,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.Printf("Error sending message chat=%d: %v", chatID, err)
	}
}

func (bh *Handlers) answerCallback(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
	})
	if err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}

func (bh *Handlers) answerCallbackAlert(ctx context.Context, b *bot.Bot, callbackID, text string) {
	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callbackID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		log.Printf("Error answering callback: %v", err)
	}
}

func (bh *Handlers) setState(user *types.UserState) {
	if err := bh.states.SetState(user); err != nil {
		log.Printf("Error saving state user=%d: %v", user.UserID, err)
	}
}

func (bh *Handlers) clearState(userID int64) {
	if err := bh.states.ClearState(userID); err != nil {
		log.Printf("Error clearing state user=%d: %v", userID, err)
	}
}
