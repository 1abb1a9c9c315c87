package api

import "time"

// FastAPI's isoformat timestamps carry no zone and an optional fraction.
const backendTimestampLayout = "2006-01-02T15:04:05.999999999"

// Owner describes the user attached to a post. The backend may omit it
// entirely, so posts carry it as a pointer.
type Owner struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Post mirrors the payload returned by /tweets/ endpoints.
type Post struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	OwnerID   int64  `json:"owner_id"`
	Owner     *Owner `json:"owner"`
}

// OwnerName returns the owner's display name, or empty when the backend
// omitted the owner record.
func (p Post) OwnerName() string {
	if p.Owner == nil {
		return ""
	}
	return p.Owner.Name
}

// ParsedCreatedAt returns the parsed CreatedAt timestamp.
func (p Post) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// Account mirrors /api/users/me and register responses.
type Account struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// tokenResponse mirrors the login payload. The backend also embeds a user
// object, but /api/users/me is the authoritative identity source.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	if t, err := time.Parse(backendTimestampLayout, value); err == nil {
		return t
	}
	return time.Time{}
}
