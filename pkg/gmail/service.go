package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	emaildomain "mailtriage-backend/internal/email/domain"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// TokenUpdateFunc is a callback function that handles token updates
type TokenUpdateFunc = emaildomain.TokenUpdateFunc

// Service implements domain.MailProvider on top of the Gmail API.
type Service struct {
	clientID     string
	clientSecret string
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewService(clientID, clientSecret string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// getGmailService creates a Gmail client with the account's tokens
func (s *Service) getGmailService(ctx context.Context, account *emaildomain.MailAccount) (*gmail.Service, error) {
	token := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		TokenType:    "Bearer",
	}

	// Only force refresh if we have a refresh token
	if account.RefreshToken != "" {
		token.Expiry = time.Now()
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	// Wrap token source to detect refreshes
	wrappedSource := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: account.OnTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrappedSource)

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %v", err)
	}

	return srv, nil
}

// ListRecent fetches the most recent inbox messages, newest first.
// Full message bodies are fetched in parallel with a small concurrency cap.
func (s *Service) ListRecent(ctx context.Context, account *emaildomain.MailAccount, maxResults int, query string) ([]*emaildomain.InboxMessage, error) {
	srv, err := s.getGmailService(ctx, account)
	if err != nil {
		return nil, err
	}

	user := "me"
	q := "in:inbox"
	if query != "" {
		q += " " + query
	}

	requestLimit := int64(maxResults)
	if requestLimit <= 0 {
		requestLimit = 20
	}
	if requestLimit > 500 {
		requestLimit = 500 // Gmail API maximum
	}

	listResp, err := srv.Users.Messages.List(user).Q(q).MaxResults(requestLimit).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %v", err)
	}

	type fetchResult struct {
		msg *emaildomain.InboxMessage
		err error
	}

	results := make(chan fetchResult, len(listResp.Messages))
	semaphore := make(chan struct{}, 10) // Max 10 concurrent requests

	for _, msg := range listResp.Messages {
		go func(msgID string) {
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			fullMsg, err := srv.Users.Messages.Get(user, msgID).Format("full").Do()
			if err != nil {
				results <- fetchResult{nil, err}
				return
			}
			results <- fetchResult{convertGmailMessage(fullMsg), nil}
		}(msg.Id)
	}

	messages := make([]*emaildomain.InboxMessage, 0, len(listResp.Messages))
	var fetchErr error
	for range listResp.Messages {
		result := <-results
		if result.err != nil {
			fetchErr = result.err
			continue
		}
		messages = append(messages, result.msg)
	}

	// If everything failed, the auth or connection is broken; surface it.
	if len(messages) == 0 && fetchErr != nil {
		return nil, fmt.Errorf("unable to retrieve message details: %v", fetchErr)
	}

	// Parallel fetching returns messages in random order
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})

	return messages, nil
}

// Archive removes the INBOX label from a message
func (s *Service) Archive(ctx context.Context, account *emaildomain.MailAccount, messageID string) error {
	srv, err := s.getGmailService(ctx, account)
	if err != nil {
		return err
	}

	modifyReq := &gmail.ModifyMessageRequest{
		RemoveLabelIds: []string{"INBOX"},
	}
	if _, err := srv.Users.Messages.Modify("me", messageID, modifyReq).Do(); err != nil {
		return fmt.Errorf("unable to archive message: %v", err)
	}
	return nil
}

// Trash moves a message to trash
func (s *Service) Trash(ctx context.Context, account *emaildomain.MailAccount, messageID string) error {
	srv, err := s.getGmailService(ctx, account)
	if err != nil {
		return err
	}

	modifyReq := &gmail.ModifyMessageRequest{
		AddLabelIds: []string{"TRASH"},
	}
	if _, err := srv.Users.Messages.Modify("me", messageID, modifyReq).Do(); err != nil {
		return fmt.Errorf("unable to trash message: %v", err)
	}
	return nil
}

// Watch sets up push notifications for the user's mailbox
func (s *Service) Watch(ctx context.Context, account *emaildomain.MailAccount, topic string) error {
	srv, err := s.getGmailService(ctx, account)
	if err != nil {
		return err
	}

	// Stop any existing watch first to avoid "Only one user push
	// notification client allowed" errors. Failure here is fine.
	_ = srv.Users.Stop("me").Do()

	req := &gmail.WatchRequest{
		TopicName: topic,
		LabelIds:  []string{"INBOX"},
	}

	resp, err := srv.Users.Watch("me", req).Do()
	if err != nil {
		return fmt.Errorf("unable to watch mailbox: %v", err)
	}
	log.Printf("[Gmail] Watch started for %s. Expiration: %d, HistoryId: %d", account.Email, resp.Expiration, resp.HistoryId)

	return nil
}

// Stop stops push notifications for the user's mailbox
func (s *Service) Stop(ctx context.Context, account *emaildomain.MailAccount) error {
	srv, err := s.getGmailService(ctx, account)
	if err != nil {
		return err
	}

	if err := srv.Users.Stop("me").Do(); err != nil {
		return fmt.Errorf("unable to stop mailbox watch: %v", err)
	}
	return nil
}

// Helper functions

func convertGmailMessage(msg *gmail.Message) *emaildomain.InboxMessage {
	from := getHeader(msg.Payload.Headers, "From")
	fromName := from
	// Extract name from "Name <email@example.com>" format
	if idx := strings.Index(from, "<"); idx > 0 {
		fromName = strings.Trim(strings.TrimSpace(from[:idx]), `"`)
	}

	plainBody, htmlBody := getEmailBody(msg.Payload)

	return &emaildomain.InboxMessage{
		ID:         msg.Id,
		ThreadID:   msg.ThreadId,
		Subject:    getHeader(msg.Payload.Headers, "Subject"),
		From:       from,
		FromName:   fromName,
		To:         getHeader(msg.Payload.Headers, "To"),
		ReceivedAt: time.Unix(msg.InternalDate/1000, 0),
		Body:       plainBody,
		HTMLBody:   htmlBody,
	}
}

func getHeader(headers []*gmail.MessagePartHeader, name string) string {
	for _, header := range headers {
		if strings.EqualFold(header.Name, name) {
			return header.Value
		}
	}
	return ""
}

func getEmailBody(payload *gmail.MessagePart) (plain string, html string) {
	// The payload itself may be the body for single-part messages
	if payload.Body != nil && payload.Body.Data != "" {
		if data, err := base64.URLEncoding.DecodeString(payload.Body.Data); err == nil {
			if payload.MimeType == "text/html" {
				return "", string(data)
			}
			return string(data), ""
		}
	}

	var findBody func(parts []*gmail.MessagePart)
	findBody = func(parts []*gmail.MessagePart) {
		for _, part := range parts {
			if part.Body != nil && part.Body.Data != "" {
				data, err := base64.URLEncoding.DecodeString(part.Body.Data)
				if err == nil {
					switch part.MimeType {
					case "text/html":
						html = string(data)
					case "text/plain":
						plain = string(data)
					}
				}
			}
			if len(part.Parts) > 0 {
				findBody(part.Parts)
			}
		}
	}
	findBody(payload.Parts)

	return plain, html
}
