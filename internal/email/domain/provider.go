package domain

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// InboxMessage is a message as fetched from the external mailbox provider.
// It is read-only input to the import pipeline; Message is the stored form.
type InboxMessage struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	Subject    string    `json:"subject"`
	From       string    `json:"from"`
	FromName   string    `json:"from_name,omitempty"`
	To         string    `json:"to"`
	ReceivedAt time.Time `json:"received_at"`
	Preview    string    `json:"preview"`
	Body       string    `json:"body"`
	HTMLBody   string    `json:"html_body,omitempty"`
}

// TokenUpdateFunc is called when the provider refreshes an OAuth token so
// the new token can be persisted.
type TokenUpdateFunc func(token *oauth2.Token) error

// MailAccount carries the credentials needed to talk to a user's mailbox.
type MailAccount struct {
	Provider string // "google" or "imap"
	Email    string

	// Google
	AccessToken    string
	RefreshToken   string
	OnTokenRefresh TokenUpdateFunc

	// IMAP
	IMAPServer   string
	IMAPPort     int
	IMAPPassword string
}

// MailProvider is the mailbox collaborator contract the import pipeline
// depends on. Connectivity and auth failures come back as ordinary errors;
// Archive and Trash on a missing message are provider-level errors too and
// are treated as best-effort by the pipeline.
type MailProvider interface {
	ListRecent(ctx context.Context, account *MailAccount, maxResults int, query string) ([]*InboxMessage, error)
	Archive(ctx context.Context, account *MailAccount, messageID string) error
	Trash(ctx context.Context, account *MailAccount, messageID string) error
	// Watch registers for push notifications on mailbox changes. Providers
	// without push support return an error.
	Watch(ctx context.Context, account *MailAccount, topic string) error
}
