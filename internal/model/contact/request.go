package contact

// RequestStatus tracks how far the team has taken a callback request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusContacted RequestStatus = "contacted"
	StatusResolved  RequestStatus = "resolved"
)

// ValidStatus reports whether s is one of the three known states.
func ValidStatus(s RequestStatus) bool {
	switch s {
	case StatusPending, StatusContacted, StatusResolved:
		return true
	}
	return false
}

// Request is a callback request captured from the contact form and kept in
// the realtime store so the admin view updates live.
type Request struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email"`
	Phone     string        `json:"phone"`
	Subject   string        `json:"subject"`
	Message   string        `json:"message"`
	Status    RequestStatus `json:"status"`
	CreatedAt int64         `json:"createdAt"`
}
