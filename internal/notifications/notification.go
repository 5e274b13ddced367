package notifications

import (
	"github.com/google/uuid"

	"github.com/homeward/settlement-backend/pkg/db/models"
	"github.com/homeward/settlement-backend/pkg/enums"
)

// Recipient is one addressee; the notification service picks the channel.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email,omitempty"`
	Phone  string    `json:"phone,omitempty"`
}

// RecipientsFor addresses users by email and, when present, phone.
func RecipientsFor(users ...*models.User) []Recipient {
	out := make([]Recipient, 0, len(users))
	for _, u := range users {
		if u == nil || (u.Email == "" && u.Phone == nil) {
			continue
		}
		r := Recipient{UserID: u.ID, Email: u.Email}
		if u.Phone != nil {
			r.Phone = *u.Phone
		}
		out = append(out, r)
	}
	return out
}

// Notification is a template action plus the parameters it renders with.
type Notification struct {
	Action     enums.NotificationAction `json:"action"`
	Recipients []Recipient              `json:"recipients"`
	Params     map[string]string        `json:"params,omitempty"`
}

// Batch collects notifications while a transaction is open. Nothing is sent
// until the owner of the batch hands it to a Dispatcher after commit.
type Batch struct {
	items []Notification
}

func (b *Batch) Add(n Notification) {
	if b == nil || len(n.Recipients) == 0 {
		return
	}
	b.items = append(b.items, n)
}

func (b *Batch) Items() []Notification {
	if b == nil {
		return nil
	}
	out := make([]Notification, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.items)
}
