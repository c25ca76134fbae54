package types

import (
	"strings"
	"time"
)

// GateChannel is a channel a user must join before the bot serves them.
type GateChannel struct {
	ID       int64
	Username string
	Title    string
	AddedAt  time.Time
}

func (c GateChannel) URL() string {
	return "https://t.me/" + strings.TrimPrefix(c.Username, "@")
}

// ModChannel is a channel carrying the paid content. Private channels keep a
// numeric ChannelID for invite minting and membership checks; the stored URL
// is the fallback when minting fails.
type ModChannel struct {
	ID        int64
	Username  string
	Title     string
	URL       string
	IsPrivate bool
	ChannelID int64
	AddedAt   time.Time
}

// ModTarget is where a download button points.
type ModTarget interface {
	isModTarget()
}

type PublicTarget struct {
	URL string
}

type PrivateTarget struct {
	ChannelID   int64
	FallbackURL string
}

func (PublicTarget) isModTarget()  {}
func (PrivateTarget) isModTarget() {}

func (c ModChannel) Target() ModTarget {
	if c.IsPrivate && c.ChannelID != 0 {
		return PrivateTarget{ChannelID: c.ChannelID, FallbackURL: c.URL}
	}
	url := c.URL
	if url == "" && c.Username != "" {
		url = "https://t.me/" + strings.TrimPrefix(c.Username, "@")
	}
	return PublicTarget{URL: url}
}
