// Package channels wraps the Bot API calls that touch channel membership:
// the membership oracle, single-use invite minting and access revocation.
package channels

import (
	"context"
	"log"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

type Membership int

const (
	// Unknown covers lookup failures; callers must treat it as "not a
	// member" so a flaky API never opens the gate.
	Unknown Membership = iota
	Member
	Left
	Kicked
)

type Service struct {
	bot     *bot.Bot
	timeout time.Duration
}

func NewService(b *bot.Bot) *Service {
	return &Service{
		bot:     b,
		timeout: 10 * time.Second,
	}
}

// GetMembership reports whether the user currently belongs to the chat.
// chat is a numeric channel id or an @username.
func (s *Service) GetMembership(ctx context.Context, chat any, userID int64) Membership {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	member, err := s.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chat,
		UserID: userID,
	})
	if err != nil {
		log.Printf("Membership check failed chat=%v user=%d: %v", chat, userID, err)
		return Unknown
	}

	switch member.Type {
	case models.ChatMemberTypeLeft:
		return Left
	case models.ChatMemberTypeBanned:
		return Kicked
	case models.ChatMemberTypeRestricted:
		if member.Restricted != nil && !member.Restricted.IsMember {
			return Left
		}
		return Member
	default:
		return Member
	}
}

func (s *Service) IsMember(ctx context.Context, chat any, userID int64) bool {
	return s.GetMembership(ctx, chat, userID) == Member
}

// CreateInviteLink mints a single-use invite into a private channel.
func (s *Service) CreateInviteLink(ctx context.Context, channelID int64) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	link, err := s.bot.CreateChatInviteLink(ctx, &bot.CreateChatInviteLinkParams{
		ChatID:             channelID,
		MemberLimit:        1,
		CreatesJoinRequest: false,
	})
	if err != nil {
		return "", err
	}
	return link.InviteLink, nil
}

// Revoke removes the user from the channel: ban followed by an immediate
// unban, so they can rejoin later through a fresh invite.
func (s *Service) Revoke(ctx context.Context, channelID, userID int64) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.bot.BanChatMember(ctx, &bot.BanChatMemberParams{
		ChatID: channelID,
		UserID: userID,
	})
	if err != nil {
		log.Printf("Failed to ban user=%d channel=%d: %v", userID, channelID, err)
		return false
	}
	_, err = s.bot.UnbanChatMember(ctx, &bot.UnbanChatMemberParams{
		ChatID:       channelID,
		UserID:       userID,
		OnlyIfBanned: true,
	})
	if err != nil {
		log.Printf("Failed to unban user=%d channel=%d: %v", userID, channelID, err)
	}
	return true
}
