package usecase

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"

	authdomain "mailtriage-backend/internal/auth/domain"
	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/pkg/ai"
)

const previewLength = 200

// enrichItem runs the per-item enrichment step: one combined AI analysis
// call (wrapped in the backoff executor), a local unsubscribe-link scan,
// the message insert, the sender digest bump, and optionally mailbox-side
// auto-archival. Returns the stored message and whether it was archived.
//
// Errors here are terminal for this item only; the caller records them and
// moves on.
func (u *importUsecase) enrichItem(ctx context.Context, user *authdomain.User, provider domain.MailProvider, account *domain.MailAccount, item *domain.InboxMessage, categories []ai.CategoryOption) (*domain.Message, bool, error) {
	text := item.Body
	if text == "" && item.HTMLBody != "" {
		text = u.sanitize.Sanitize(item.HTMLBody)
	}

	var analysis *ai.EmailAnalysis
	err := u.backoff.Do(ctx, func(ctx context.Context) error {
		result, err := u.analyzer.AnalyzeEmail(ctx, &ai.AnalysisRequest{
			Subject:    item.Subject,
			From:       item.From,
			Body:       text,
			Categories: categories,
		})
		if err != nil {
			return err
		}
		analysis = result
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("analysis failed: %w", err)
	}

	message := &domain.Message{
		UserID:         user.ID,
		SourceID:       item.ID,
		ThreadID:       item.ThreadID,
		AccountEmail:   account.Email,
		Subject:        item.Subject,
		From:           item.From,
		FromName:       item.FromName,
		To:             item.To,
		ReceivedAt:     item.ReceivedAt,
		Preview:        makePreview(text),
		Body:           item.Body,
		HTMLBody:       item.HTMLBody,
		CategoryID:     analysis.CategoryID,
		Summary:        analysis.Summary,
		PriorityScore:  analysis.PriorityScore,
		ImportantFlags: analysis.ImportantFlags,
		UnsubscribeURL: findUnsubscribeURL(item.Body, item.HTMLBody),
	}

	created, err := u.messageRepo.CreateIfAbsent(message)
	if err != nil {
		return nil, false, fmt.Errorf("failed to store message: %w", err)
	}
	if !created {
		return nil, false, errSkipped
	}

	if err := u.senderRepo.RecordMessage(user.ID, senderAddress(item.From), item.FromName, item.ReceivedAt); err != nil {
		// The message row is already committed; a lost digest bump is a
		// statistics blemish, not a failed import.
		log.Printf("[Import] Failed to update sender digest for %s: %v", item.From, err)
	}

	if u.index != nil {
		if err := u.index.UpsertMessage(ctx, message.ID, user.ID, item.Subject, analysis.Summary, text); err != nil {
			log.Printf("[Import] Failed to index message %s: %v", message.ID, err)
		}
	}

	archived := false
	if u.cfg.ImportAutoArchive {
		if err := provider.Archive(ctx, account, item.ID); err != nil {
			log.Printf("[Import] Failed to auto-archive message %s: %v", item.ID, err)
		} else {
			archived = true
			if err := u.messageRepo.SetArchived(user.ID, message.ID, true); err != nil {
				log.Printf("[Import] Failed to mark message %s archived: %v", message.ID, err)
			}
		}
	}

	return message, archived, nil
}

// senderAddress reduces a From header to the bare address so that sender
// digests aggregate per mailbox regardless of display-name formatting or
// which provider fetched the message.
func senderAddress(from string) string {
	if addr, err := mail.ParseAddress(from); err == nil {
		return addr.Address
	}
	return from
}

func makePreview(text string) string {
	// Collapse whitespace runs, then truncate
	preview := strings.Join(strings.Fields(text), " ")
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}
	return preview
}
