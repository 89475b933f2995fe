// Package chat implements the conversational ask pipeline: question in,
// SQL out, executed results analyzed and streamed back as fragments.
package chat

import (
	"html/template"
	"time"
)

// AskSignals are the signals sent from the chat form.
type AskSignals struct {
	Question string `json:"question"`
	Preset   string `json:"preset"`
	Source   string `json:"source"`
}

// MessageView is one rendered chat message.
type MessageView struct {
	ID         string
	Role       string
	Content    string
	SQL        string
	Error      string
	ResultHTML template.HTML
	CreatedAt  time.Time
}

// SessionItem is one entry of the session sidebar.
type SessionItem struct {
	ID      string
	Title   string
	Current bool
}

// ViewData is everything the chat view needs.
type ViewData struct {
	Sessions  []SessionItem
	Messages  []MessageView
	Presets   []string
	Preset    string
	Sources   []string
	Source    string
	SessionID string
}
