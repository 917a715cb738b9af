package imap

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	emaildomain "mailtriage-backend/internal/email/domain"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"
)

// Service implements domain.MailProvider over IMAP for non-Gmail accounts.
// Each operation dials a fresh connection; IMAP servers drop idle
// connections aggressively and the import pipeline runs infrequently.
type Service struct {
	// Decrypt resolves the stored password before dialing.
	Decrypt func(encrypted string) (string, error)
}

func NewService(decrypt func(string) (string, error)) *Service {
	return &Service{Decrypt: decrypt}
}

func (s *Service) connect(account *emaildomain.MailAccount) (*client.Client, error) {
	addr := fmt.Sprintf("%s:%d", account.IMAPServer, account.IMAPPort)
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to %s: %w", addr, err)
	}

	password := account.IMAPPassword
	if s.Decrypt != nil {
		password, err = s.Decrypt(account.IMAPPassword)
		if err != nil {
			c.Logout()
			return nil, fmt.Errorf("unable to decrypt password: %w", err)
		}
	}

	if err := c.Login(account.Email, password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login failed: %w", err)
	}
	return c, nil
}

// ListRecent fetches the newest messages from INBOX.
// The query parameter is ignored; IMAP SEARCH has no Gmail-style syntax.
func (s *Service) ListRecent(ctx context.Context, account *emaildomain.MailAccount, maxResults int, query string) ([]*emaildomain.InboxMessage, error) {
	c, err := s.connect(account)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	mbox, err := c.Select("INBOX", true)
	if err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %w", err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	if maxResults <= 0 {
		maxResults = 20
	}
	from := uint32(1)
	if mbox.Messages > uint32(maxResults) {
		from = mbox.Messages - uint32(maxResults) + 1
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, maxResults)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, messages)
	}()

	var result []*emaildomain.InboxMessage
	for msg := range messages {
		converted, err := convertIMAPMessage(msg, section)
		if err != nil {
			log.Printf("[IMAP] Skipping unparseable message %d: %v", msg.Uid, err)
			continue
		}
		result = append(result, converted)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("unable to fetch messages: %w", err)
	}

	// Newest first, matching the Gmail provider
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}

	return result, nil
}

// Archive moves a message out of INBOX into an Archive mailbox.
func (s *Service) Archive(ctx context.Context, account *emaildomain.MailAccount, messageID string) error {
	return s.moveMessage(account, messageID, "Archive")
}

// Trash moves a message to the Trash mailbox.
func (s *Service) Trash(ctx context.Context, account *emaildomain.MailAccount, messageID string) error {
	return s.moveMessage(account, messageID, "Trash")
}

// Watch is not supported over plain IMAP.
func (s *Service) Watch(ctx context.Context, account *emaildomain.MailAccount, topic string) error {
	return fmt.Errorf("push notifications are not supported for IMAP accounts")
}

func (s *Service) moveMessage(account *emaildomain.MailAccount, messageID, target string) error {
	c, err := s.connect(account)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("unable to select INBOX: %w", err)
	}

	uid, err := parseUID(messageID)
	if err != nil {
		return err
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	// Ensure the target mailbox exists; Create fails harmlessly if it does.
	_ = c.Create(target)

	if err := c.UidCopy(seqset, target); err != nil {
		return fmt.Errorf("unable to copy message to %s: %w", target, err)
	}

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{imap.DeletedFlag}
	if err := c.UidStore(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("unable to flag message deleted: %w", err)
	}
	if err := c.Expunge(nil); err != nil {
		return fmt.Errorf("unable to expunge: %w", err)
	}
	return nil
}

func parseUID(messageID string) (uint32, error) {
	var uid uint32
	if _, err := fmt.Sscanf(messageID, "%d", &uid); err != nil {
		return 0, fmt.Errorf("invalid imap message id %q", messageID)
	}
	return uid, nil
}

func convertIMAPMessage(msg *imap.Message, section *imap.BodySectionName) (*emaildomain.InboxMessage, error) {
	if msg.Envelope == nil {
		return nil, fmt.Errorf("missing envelope")
	}

	result := &emaildomain.InboxMessage{
		ID:         fmt.Sprintf("%d", msg.Uid),
		Subject:    msg.Envelope.Subject,
		ReceivedAt: msg.Envelope.Date,
	}
	if result.ReceivedAt.IsZero() {
		result.ReceivedAt = time.Now()
	}

	if len(msg.Envelope.From) > 0 {
		from := msg.Envelope.From[0]
		result.From = from.Address()
		result.FromName = from.PersonalName
		if result.FromName == "" {
			result.FromName = result.From
		}
	}
	if len(msg.Envelope.To) > 0 {
		addrs := make([]string, 0, len(msg.Envelope.To))
		for _, to := range msg.Envelope.To {
			addrs = append(addrs, to.Address())
		}
		result.To = strings.Join(addrs, ", ")
	}

	body := msg.GetBody(section)
	if body == nil {
		return result, nil
	}

	mr, err := mail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("unable to parse message body: %w", err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		switch contentType {
		case "text/html":
			result.HTMLBody = string(data)
		case "text/plain":
			result.Body = string(data)
		}
	}

	return result, nil
}
