package notification

import (
	"html"
	"strings"
)

const (
	// BroadcastChannel is the shared channel every party pics client listens on.
	BroadcastChannel = "partypics/notifications"
)

// Notification is a transient message pushed to subscribed clients.
type Notification struct {
	Message      string `json:"message"`
	TournamentID uint   `json:"tournamentId"`
}

// New builds a Notification with an HTML-escaped message. Clients render the
// message as-is, so the raw text never leaves this constructor.
func New(message string, tournamentID uint) Notification {
	return Notification{
		Message:      html.EscapeString(message),
		TournamentID: tournamentID,
	}
}

// OrganizerChannel is the private channel of a tournament organizer. It is
// empty when the organizer is unknown.
func OrganizerChannel(organizer string) string {
	organizer = strings.TrimSpace(organizer)
	if organizer == "" {
		return ""
	}
	return BroadcastChannel + "/" + organizer
}
