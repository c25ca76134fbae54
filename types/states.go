package types

// ChatState tracks where a user is inside a multi-step flow. The engine only
// ever receives the fully formed command once the flow completes.
type ChatState string

const (
	StateIdle ChatState = "idle"

	StateGrantWaitingUserID ChatState = "grant_waiting_user_id"

	StateAddGateUsername ChatState = "add_gate_username"
	StateAddGateTitle    ChatState = "add_gate_title"

	StateAddModTitle     ChatState = "add_mod_title"
	StateAddModUsername  ChatState = "add_mod_username"
	StateAddModChannelID ChatState = "add_mod_channel_id"
	StateAddModURL       ChatState = "add_mod_url"

	StateBroadcastText ChatState = "broadcast_text"
)

// UserState is the per-user wizard session held in Redis. Data carries the
// fields collected so far (tariff_id, invoice_id, gate_username, ...).
type UserState struct {
	ID     string            `json:"id"`
	UserID int64             `json:"user_id"`
	ChatID int64             `json:"chat_id"`
	State  ChatState         `json:"state"`
	Data   map[string]string `json:"data,omitempty"`
}

func (s *UserState) Get(key string) string {
	if s.Data == nil {
		return ""
	}
	return s.Data[key]
}

func (s *UserState) Put(key, value string) {
	if s.Data == nil {
		s.Data = make(map[string]string)
	}
	s.Data[key] = value
}

type StateStore interface {
	GetState(userID int64) (*UserState, error)
	SetState(state *UserState) error
	ClearState(userID int64) error
}
