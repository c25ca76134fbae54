package handlers

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/tariffs"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/store"
	"github.com/extramods/modgate-bot/types"
)

func (bh *Handlers) HandleAdminCallback(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, data string) {
	if !bh.checker.IsAdmin(user.UserID) {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.AdminOnly())
		return
	}

	switch {
	case data == utils.CallbackAdminGrant:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.setState(&types.UserState{UserID: user.UserID, ChatID: chatID, State: types.StateGrantWaitingUserID})
		bh.send(ctx, b, chatID, messages.GrantAskUserID(), nil)

	case data == utils.CallbackAdminGate:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.sendGateAdminList(ctx, b, chatID)

	case data == utils.CallbackAdminGateAdd:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.setState(&types.UserState{UserID: user.UserID, ChatID: chatID, State: types.StateAddGateUsername})
		bh.send(ctx, b, chatID, messages.GateAskUsername(), nil)

	case strings.HasPrefix(data, utils.CallbackAdminGatePfx):
		bh.handleGateRemove(ctx, b, update, chatID, strings.TrimPrefix(data, utils.CallbackAdminGatePfx))

	case data == utils.CallbackAdminMods:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.sendModAdminList(ctx, b, chatID)

	case data == utils.CallbackAdminModAdd:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.setState(&types.UserState{UserID: user.UserID, ChatID: chatID, State: types.StateAddModTitle})
		bh.send(ctx, b, chatID, messages.ModAskTitle(), nil)

	case strings.HasPrefix(data, utils.CallbackAdminModPfx):
		bh.handleModRemove(ctx, b, update, chatID, strings.TrimPrefix(data, utils.CallbackAdminModPfx))

	case data == utils.CallbackAdminBroadcast:
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.setState(&types.UserState{UserID: user.UserID, ChatID: chatID, State: types.StateBroadcastText})
		bh.send(ctx, b, chatID, messages.BroadcastAsk(), nil)
	}
}

func (bh *Handlers) sendGateAdminList(ctx context.Context, b *bot.Bot, chatID int64) {
	list, err := bh.gates.ListGateChannels()
	if err != nil {
		log.Printf("Error listing gate channels: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.GateListHeader(), utils.GateAdminKeyboard(list))
}

func (bh *Handlers) sendModAdminList(ctx context.Context, b *bot.Bot, chatID int64) {
	list, err := bh.mods.ListModChannels()
	if err != nil {
		log.Printf("Error listing mod channels: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.ModListHeader(), utils.ModAdminKeyboard(list))
}

func (bh *Handlers) handleGateRemove(ctx context.Context, b *bot.Bot, update *models.Update, chatID int64, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	err = bh.gates.RemoveGateChannel(id, bh.cfg.MinGateChannels)
	if errors.Is(err, store.ErrMinGateChannels) {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.GateMinReached(bh.cfg.MinGateChannels))
		return
	}
	if err != nil {
		log.Printf("Error removing gate channel id=%d: %v", id, err)
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, messages.GateRemoved())
	bh.sendGateAdminList(ctx, b, chatID)
}

func (bh *Handlers) handleModRemove(ctx context.Context, b *bot.Bot, update *models.Update, chatID int64, rawID string) {
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	if err := bh.mods.RemoveModChannel(id); err != nil {
		log.Printf("Error removing mod channel id=%d: %v", id, err)
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, messages.ModRemoved())
	bh.sendModAdminList(ctx, b, chatID)
}

// HandleWizardStep consumes one text input for whatever multi-step flow the
// admin is inside.
func (bh *Handlers) HandleWizardStep(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, state *types.UserState, text string) {
	if !bh.checker.IsAdmin(user.UserID) {
		bh.clearState(user.UserID)
		bh.send(ctx, b, chatID, messages.AdminOnly(), nil)
		return
	}

	switch state.State {
	case types.StateGrantWaitingUserID:
		bh.wizardGrant(ctx, b, user, chatID, text)

	case types.StateAddGateUsername:
		state.Put("gate_username", normalizeUsername(text))
		state.State = types.StateAddGateTitle
		bh.setState(state)
		bh.send(ctx, b, chatID, messages.GateAskTitle(), nil)

	case types.StateAddGateTitle:
		bh.wizardGateFinish(ctx, b, user, chatID, state, text)

	case types.StateAddModTitle:
		state.Put("mod_title", text)
		state.State = types.StateAddModUsername
		bh.setState(state)
		bh.send(ctx, b, chatID, messages.ModAskUsername(), nil)

	case types.StateAddModUsername:
		if text != "-" {
			state.Put("mod_username", normalizeUsername(text))
		}
		state.State = types.StateAddModChannelID
		bh.setState(state)
		bh.send(ctx, b, chatID, messages.ModAskChannelID(), nil)

	case types.StateAddModChannelID:
		if text != "-" {
			if _, err := strconv.ParseInt(text, 10, 64); err != nil {
				bh.send(ctx, b, chatID, messages.ModAskChannelID(), nil)
				return
			}
			state.Put("mod_channel_id", text)
		}
		state.State = types.StateAddModURL
		bh.setState(state)
		bh.send(ctx, b, chatID, messages.ModAskURL(), nil)

	case types.StateAddModURL:
		bh.wizardModFinish(ctx, b, user, chatID, state, text)

	case types.StateBroadcastText:
		bh.wizardBroadcast(ctx, b, user, chatID, text)

	default:
		bh.clearState(user.UserID)
	}
}

func (bh *Handlers) wizardGrant(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, text string) {
	fields := strings.Fields(text)
	if len(fields) != 2 {
		bh.send(ctx, b, chatID, messages.GrantBadInput(), nil)
		return
	}
	targetID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		bh.send(ctx, b, chatID, messages.GrantBadInput(), nil)
		return
	}
	t, ok := tariffs.Get(fields[1])
	if !ok {
		bh.send(ctx, b, chatID, messages.UnknownTariff(), nil)
		return
	}

	// The target may never have talked to the bot; make sure the row exists
	// before the ledger references it.
	if _, err := bh.users.GetOrCreateUser(targetID, "", ""); err != nil {
		log.Printf("Error upserting grant target=%d: %v", targetID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	sub, err := bh.ledger.CreateSubscription(targetID, t.ID, t.Duration(), t.Infinite)
	if err != nil {
		log.Printf("Error granting subscription target=%d: %v", targetID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	bh.clearState(user.UserID)
	bh.send(ctx, b, chatID, messages.GrantDone(targetID, t.Label), nil)
	// Best effort: the target may never have opened a chat with the bot.
	bh.send(ctx, b, targetID, messages.SubscriptionStatus(sub.ExpiresAt), nil)
}

func (bh *Handlers) wizardGateFinish(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, state *types.UserState, title string) {
	username := state.Get("gate_username")
	if username == "" {
		bh.clearState(user.UserID)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	if _, err := bh.gates.AddGateChannel(username, title); err != nil {
		log.Printf("Error adding gate channel %s: %v", username, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	bh.clearState(user.UserID)
	bh.send(ctx, b, chatID, messages.GateAdded(username), nil)
	bh.sendGateAdminList(ctx, b, chatID)
}

func (bh *Handlers) wizardModFinish(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, state *types.UserState, url string) {
	ch := types.ModChannel{
		Title:    state.Get("mod_title"),
		Username: state.Get("mod_username"),
		URL:      strings.TrimSpace(url),
	}
	if raw := state.Get("mod_channel_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err == nil {
			ch.ChannelID = id
			ch.IsPrivate = true
		}
	}

	if _, err := bh.mods.AddModChannel(ch); err != nil {
		log.Printf("Error adding mod channel %q: %v", ch.Title, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	bh.clearState(user.UserID)
	bh.send(ctx, b, chatID, messages.ModAdded(ch.Title), nil)
	bh.sendModAdminList(ctx, b, chatID)
}

func (bh *Handlers) wizardBroadcast(ctx context.Context, b *bot.Bot, user *types.User, chatID int64, text string) {
	bh.clearState(user.UserID)

	ids, err := bh.users.ListUserIDs()
	if err != nil {
		log.Printf("Error listing users for broadcast: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}

	success, failed := bh.broadcaster.Send(ctx, ids, messages.Escape(text))
	bh.send(ctx, b, chatID, messages.BroadcastDone(success, failed), nil)
}

func normalizeUsername(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "https://t.me/")
	if raw == "" {
		return raw
	}
	if !strings.HasPrefix(raw, "@") {
		raw = "@" + raw
	}
	return raw
}
