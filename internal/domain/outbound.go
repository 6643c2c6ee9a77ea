package domain

type OutboundKind string

const (
	OutboundText    OutboundKind = "text"
	OutboundButtons OutboundKind = "buttons"
	OutboundImage   OutboundKind = "image"
	OutboundEmail   OutboundKind = "email"
)

// OutboundMessage is the notify_queue payload consumed by the delivery worker.
type OutboundMessage struct {
	Kind     OutboundKind         `json:"kind"`
	ChatID   string               `json:"chat_id,omitempty"`
	Body     string               `json:"body,omitempty"`
	Title    string               `json:"title,omitempty"`
	Footer   string               `json:"footer,omitempty"`
	Buttons  []NotificationButton `json:"buttons,omitempty"`
	Mentions []string             `json:"mentions,omitempty"`
	Metadata map[string]string    `json:"metadata,omitempty"`

	// image payloads
	Caption  string `json:"caption,omitempty"`
	Base64   string `json:"base64,omitempty"`
	Mime     string `json:"mime,omitempty"`
	Filename string `json:"filename,omitempty"`

	// email payloads
	To      string `json:"to,omitempty"`
	Subject string `json:"subject,omitempty"`
}
