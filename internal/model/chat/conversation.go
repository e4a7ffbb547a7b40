package chat

// AdminParticipant is the sentinel entry granting the operator side a seat in
// every conversation's participant set.
const AdminParticipant = "admin"

// Summary is the denormalized last-message metadata kept on the conversation
// record so listings never touch the message ledger.
type Summary struct {
	LastMessage     string `json:"lastMessage"`
	LastMessageTime int64  `json:"lastMessageTime"`
	LastSenderID    string `json:"lastSenderId"`
}

// Conversation is a two-party thread between a visitor and the admin side.
// The participant set is fixed at creation; only Metadata mutates afterwards.
type Conversation struct {
	ID             string          `json:"id"`
	CreatedBy      string          `json:"createdBy"`
	CreatedByEmail string          `json:"createdByEmail"`
	CreatedByName  string          `json:"createdByName"`
	CreatedAt      int64           `json:"createdAt"`
	Participants   map[string]bool `json:"participants"`
	Metadata       Summary         `json:"metadata"`
}

// HasParticipant reports membership in the fixed participant set.
func (c Conversation) HasParticipant(uid string) bool {
	return c.Participants[uid]
}
