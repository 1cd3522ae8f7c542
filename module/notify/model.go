package notify

// Type discriminates notification kinds; the comment/mention/share
// producers below are the only places domain semantics enter.
type Type string

const (
	TypeComment Type = "comment"
	TypeMention Type = "mention"
	TypeShare   Type = "share"
	TypeEdit    Type = "edit"
	TypeVersion Type = "version"
)

type Notification struct {
	ID        string         `json:"id"`
	UserID    string         `json:"userId"`
	Type      Type           `json:"type"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt int64          `json:"createdAt"` // unix millis
}

// Fixed titles/messages per producer type; these literals are part of
// the product surface and asserted by tests.
const (
	titleComment = "New Comment"
	msgComment   = "%s commented on cell %s"

	titleMention = "You Were Mentioned"
	msgMention   = "%s mentioned you in a comment"

	titleShare = "Spreadsheet Shared"
	msgShare   = "%s shared a spreadsheet with you"
)
