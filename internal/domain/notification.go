package domain

// NotificationButton is one interactive reply button on an outbound message.
type NotificationButton struct {
	Body string `json:"body"`
	ID   string `json:"id,omitempty"`
}

// NotificationSpec is produced by the apply commit path and forwarded
// verbatim to the messaging bridge. The booking core never builds one itself.
type NotificationSpec struct {
	Message        string               `json:"message"`
	Title          string               `json:"title,omitempty"`
	Footer         string               `json:"footer,omitempty"`
	Buttons        []NotificationButton `json:"buttons"`
	MentionNumbers []string             `json:"mention_numbers,omitempty"`
	Metadata       map[string]string    `json:"metadata,omitempty"`
}
