package chat

// Message is one ledger entry. Immutable once written except for Read, which
// only ever transitions false to true.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Message    string `json:"message"`
	Timestamp  int64  `json:"timestamp"`
	Read       bool   `json:"read"`
}
