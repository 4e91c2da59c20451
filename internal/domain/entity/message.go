package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// MessageType tags the payload union: a plain text message or a text
// message carrying a link preview.
type MessageType string

const (
	MessageTypeText MessageType = "text"
	MessageTypeLink MessageType = "link"
)

// Message is the wire shape persisted under a scope's log. The key and
// timestamp are assigned by the store on append; {SenderID, Body, Timestamp}
// are immutable afterwards. Only the read state may change, and only through
// a mark-as-read by a participant other than the sender.
type Message struct {
	ID                   string          `json:"-"`
	SenderID             string          `json:"senderId"`
	SenderName           string          `json:"senderName"`
	SenderProfilePicture string          `json:"senderProfilePicture,omitempty"`
	Body                 string          `json:"message"`
	Type                 MessageType     `json:"type"`
	LinkPreview          *LinkPreview    `json:"linkPreview,omitempty"`
	Timestamp            int64           `json:"timestamp"`
	ReceiverID           string          `json:"receiverId,omitempty"`
	Read                 bool            `json:"read,omitempty"`
	ReadBy               map[string]bool `json:"readBy,omitempty"`
}

// LinkPreview is the best-effort enrichment attached to link messages.
type LinkPreview struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	Domain      string `json:"domain"`
	Type        string `json:"type"`
}

// Validate runs at the store boundary: records read back from the database
// are not assumed well formed.
func (m *Message) Validate() error {
	if m.SenderID == "" {
		return fmt.Errorf("message missing sender id")
	}
	switch m.Type {
	case MessageTypeText, MessageTypeLink:
	default:
		return fmt.Errorf("unknown message type %q", m.Type)
	}
	if m.Type == MessageTypeText && m.LinkPreview != nil {
		return fmt.Errorf("text message carries a link preview")
	}
	return nil
}

// IsReadBy reports whether the viewer has already read this message,
// covering both the private read flag and the group readBy map.
func (m *Message) IsReadBy(viewerID string) bool {
	if m.Read {
		return true
	}
	return m.ReadBy[viewerID]
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// DetectLink returns the first URL in body, if any.
func DetectLink(body string) (string, bool) {
	match := urlPattern.FindString(body)
	return match, match != ""
}

// StubPreview derives a minimal preview from the URL alone, used when the
// preview provider fails.
func StubPreview(url string) *LinkPreview {
	domain := url
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	return &LinkPreview{
		Title:  domain,
		Domain: domain,
		Type:   "website",
	}
}
