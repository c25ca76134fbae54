package handlers

import (
	"context"
	"log"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/extramods/modgate-bot/internal/messages"
	"github.com/extramods/modgate-bot/internal/utils"
	"github.com/extramods/modgate-bot/types"
)

func (bh *Handlers) HandleModsMenu(ctx context.Context, b *bot.Bot, chatID int64) {
	list, err := bh.mods.ListModChannels()
	if err != nil {
		log.Printf("Error listing mod channels: %v", err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if len(list) == 0 {
		bh.send(ctx, b, chatID, messages.ModChannelsEmpty(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.ModChannelsHeader(), utils.ModChannelsKeyboard(list))
}

// HandleModSelect hands out the link to a mod channel. Private channels get
// a freshly minted single-use invite; if minting fails the stored fallback
// URL is used instead.
func (bh *Handlers) HandleModSelect(ctx context.Context, b *bot.Bot, update *models.Update, user *types.User, chatID int64, rawID string) {
	access, err := bh.checker.HasAccess(user.UserID)
	if err != nil {
		log.Printf("Error checking access user=%d: %v", user.UserID, err)
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}
	if !access {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		bh.send(ctx, b, chatID, messages.ModAccessDenied(), nil)
		return
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")
		return
	}

	channel := bh.findModChannel(id)
	if channel == nil {
		bh.answerCallbackAlert(ctx, b, update.CallbackQuery.ID, messages.ErrorDefault())
		return
	}

	bh.answerCallback(ctx, b, update.CallbackQuery.ID, "")

	switch target := channel.Target().(type) {
	case types.PrivateTarget:
		link, err := bh.channels.CreateInviteLink(ctx, target.ChannelID)
		if err != nil {
			log.Printf("Error minting invite channel=%d: %v", target.ChannelID, err)
			link = target.FallbackURL
		}
		if link == "" {
			bh.send(ctx, b, chatID, messages.ErrorInviteFailed(), nil)
			return
		}
		bh.send(ctx, b, chatID, messages.ModInviteLink(channel.Title, link), nil)
	case types.PublicTarget:
		bh.send(ctx, b, chatID, messages.ModInviteLink(channel.Title, target.URL), nil)
	}
}

func (bh *Handlers) findModChannel(id int64) *types.ModChannel {
	list, err := bh.mods.ListModChannels()
	if err != nil {
		log.Printf("Error listing mod channels: %v", err)
		return nil
	}
	for _, ch := range list {
		if ch.ID == id {
			return ch
		}
	}
	return nil
}

// HandleKey sends the shared license key to subscribers.
func (bh *Handlers) HandleKey(ctx context.Context, b *bot.Bot, user *types.User, chatID int64) {
	access, err := bh.checker.HasAccess(user.UserID)
	if err != nil {
		log.Printf("Error checking access user=%d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if !access {
		bh.send(ctx, b, chatID, messages.ModAccessDenied(), nil)
		return
	}
	bh.send(ctx, b, chatID, messages.LicenseKey(bh.cfg.LicenseKey), nil)
}

func (bh *Handlers) HandleMySubscriptions(ctx context.Context, b *bot.Bot, user *types.User, chatID int64) {
	subs, err := bh.ledger.ListSubscriptions(user.UserID)
	if err != nil {
		log.Printf("Error listing subscriptions user=%d: %v", user.UserID, err)
		bh.send(ctx, b, chatID, messages.ErrorDefault(), nil)
		return
	}
	if len(subs) == 0 {
		bh.send(ctx, b, chatID, messages.NoSubscription(), nil)
		return
	}

	lines := make([]string, 0, len(subs)+1)
	lines = append(lines, messages.SubscriptionsHeader())
	for _, sub := range subs {
		lines = append(lines, messages.SubscriptionLine(sub))
	}
	bh.send(ctx, b, chatID, strings.Join(lines, "\n"), nil)
}
