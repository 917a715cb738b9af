package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"mailtriage-backend/internal/email/domain"
)

func TestEnrichStoresDerivedFields(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		{
			ID:         "a",
			Subject:    "Sale ends soon",
			From:       "promo@shop.example.com",
			FromName:   "Shop",
			ReceivedAt: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
			Body:       "Everything 50% off. Unsubscribe: https://shop.example.com/unsubscribe/x1",
			HTMLBody:   `<p>Everything 50% off.</p><a href="https://shop.example.com/unsubscribe/x1">Unsubscribe</a>`,
		},
	}

	if _, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, ""); err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}

	stored := f.messages.stored["a"]
	if stored == nil {
		t.Fatal("message was not stored")
	}
	if stored.Summary != "summary of Sale ends soon" {
		t.Errorf("Summary = %q", stored.Summary)
	}
	if stored.PriorityScore != 60 {
		t.Errorf("PriorityScore = %d, want 60", stored.PriorityScore)
	}
	if stored.UnsubscribeURL != "https://shop.example.com/unsubscribe/x1" {
		t.Errorf("UnsubscribeURL = %q", stored.UnsubscribeURL)
	}
	if stored.ImportantFlags == nil {
		t.Error("ImportantFlags must not be nil")
	}
	if stored.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", stored.UserID)
	}
	if stored.AccountEmail != "me@example.com" {
		t.Errorf("AccountEmail = %q", stored.AccountEmail)
	}
}

func TestMakePreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"collapses whitespace", "hello   world\n\nagain", "hello world again"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := makePreview(tt.text); got != tt.want {
				t.Errorf("makePreview(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}

	long := makePreview(strings.Repeat("word ", 100))
	if len(long) != previewLength+3 {
		t.Errorf("truncated preview length = %d, want %d", len(long), previewLength+3)
	}
	if !strings.HasSuffix(long, "...") {
		t.Error("truncated preview should end with ellipsis")
	}
}
