package middleware

import (
	"context"
	"log"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/contextkeys"
	"github.com/extramods/modgate-bot/internal/gate"
	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

type Middlewares struct {
	users   types.UserStore
	checker *gate.Checker
}

func New(users types.UserStore, checker *gate.Checker) *Middlewares {
	return &Middlewares{
		users:   users,
		checker: checker,
	}
}

// AnalyzeMessageMiddleware tags the update with its kind so handlers can
// branch on context instead of re-inspecting the update.
func (m *Middlewares) AnalyzeMessageMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCallback)
			ctx = contextkeys.WithCallbackData(ctx, update.CallbackQuery.Data)
		case update.Message != nil && strings.HasPrefix(update.Message.Text, "/"):
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeCommand)
		case update.Message != nil && update.Message.Text != "":
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeText)
		default:
			ctx = contextkeys.WithMessageType(ctx, contextkeys.MessageTypeUnknown)
		}
		next(ctx, b, update)
	}
}

// IdentifyUserMiddleware upserts the sender and puts the row into context.
// Updates without an identifiable sender are dropped.
func (m *Middlewares) IdentifyUserMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		var (
			from   *models.User
			chatID int64
		)

		switch {
		case update.Message != nil && update.Message.From != nil:
			from = update.Message.From
			chatID = update.Message.Chat.ID
		case update.CallbackQuery != nil:
			from = &update.CallbackQuery.From
			chatID = getChatIDFromMaybeInaccessibleMessage(update.CallbackQuery.Message)
		default:
			return
		}

		if from == nil || from.ID == 0 || chatID == 0 {
			return
		}

		fullName := strings.TrimSpace(from.FirstName + " " + from.LastName)
		user, err := m.users.GetOrCreateUser(from.ID, fullName, from.Username)
		if err != nil {
			log.Printf("Error upserting user=%d: %v", from.ID, err)
			b.SendMessage(ctx, &bot.SendMessageParams{
				ChatID:    chatID,
				Text:      messages.ErrorDefault(),
				ParseMode: messages.ParseModeHTML,
			})
			return
		}

		next(contextkeys.WithUser(ctx, user), b, update)
	}
}

// GateMiddleware blocks everything but the re-check button until the user
// joined all gate channels.
func (m *Middlewares) GateMiddleware(next bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		if data, ok := contextkeys.GetCallbackData(ctx); ok && data == utils.CallbackCheckSubscription {
			next(ctx, b, update)
			return
		}

		user, ok := contextkeys.GetUser(ctx)
		if !ok {
			return
		}

		unmet, err := m.checker.Unmet(ctx, user.UserID)
		if err != nil {
			// A store hiccup must not brick the bot; let the update through.
			log.Printf("Gate check failed user=%d: %v", user.UserID, err)
			next(ctx, b, update)
			return
		}
		if len(unmet) == 0 {
			next(ctx, b, update)
			return
		}

		if update.CallbackQuery != nil {
			b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
				CallbackQueryID: update.CallbackQuery.ID,
				Text:            messages.GateStillUnmet(),
				ShowAlert:       true,
			})
			return
		}

		chatID := update.Message.Chat.ID
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        messages.GateRequired(),
			ParseMode:   messages.ParseModeHTML,
			ReplyMarkup: utils.GateKeyboard(unmet),
		})
	}
}

func getChatIDFromMaybeInaccessibleMessage(m models.MaybeInaccessibleMessage) int64 {
	if m.Message != nil {
		return m.Message.Chat.ID
	}
	if m.InaccessibleMessage != nil {
		return m.InaccessibleMessage.Chat.ID
	}
	return 0
}
