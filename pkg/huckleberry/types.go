package huckleberry

// Child is one entry in the account's children roster.
type Child struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	Birthday string `json:"birthday,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone,omitempty"`
}

type loginResponse struct {
	Token string `json:"token"`
}

type childrenResponse struct {
	Children []Child `json:"children"`
}

// streamFrame is one message on a child's realtime stream. Channel is
// either "state" or "feed"; Data replaces the cache entry wholesale.
type streamFrame struct {
	Channel string         `json:"channel"`
	Data    map[string]any `json:"data"`
}

const (
	channelState = "state"
	channelFeed  = "feed"
)
