package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	authdomain "mailtriage-backend/internal/auth/domain"
	authrepo "mailtriage-backend/internal/auth/repository"
	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/dto"
	"mailtriage-backend/internal/email/repository"
	"mailtriage-backend/pkg/ai"
	"mailtriage-backend/pkg/chroma"
	"mailtriage-backend/pkg/config"
	"mailtriage-backend/pkg/fcm"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/oauth2"
)

// errSkipped marks an item that lost an insert race to a concurrent run.
// It counts as skipped, not failed.
var errSkipped = errors.New("message already stored")

// Imported messages scoring at or above this get a push notification.
const highPriorityThreshold = 80

// ImportUsecase drives the email import pipeline: fetch recent messages,
// drop already-stored ones, enrich the rest through the AI provider in
// rate-limited batches, and record the run in the daily activity aggregates.
type ImportUsecase interface {
	ImportRecent(ctx context.Context, userID string, maxResults int, query string) (*dto.ImportReport, error)
	WatchMailbox(ctx context.Context, userID string) error
}

type importUsecase struct {
	providers    map[string]domain.MailProvider
	analyzer     ai.Analyzer
	userRepo     authrepo.UserRepository
	messageRepo  repository.MessageRepository
	categoryRepo repository.CategoryRepository
	senderRepo   repository.SenderDigestRepository
	activityRepo repository.DailyActivityRepository
	index        *chroma.Client // nil disables semantic indexing
	deviceRepo   authrepo.DeviceTokenRepository
	fcm          *fcm.Client // nil disables high-priority pushes
	cfg          *config.Config

	backoff  *Backoff
	sanitize *bluemonday.Policy

	// Test seams
	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

func NewImportUsecase(
	providers map[string]domain.MailProvider,
	analyzer ai.Analyzer,
	userRepo authrepo.UserRepository,
	messageRepo repository.MessageRepository,
	categoryRepo repository.CategoryRepository,
	senderRepo repository.SenderDigestRepository,
	activityRepo repository.DailyActivityRepository,
	index *chroma.Client,
	deviceRepo authrepo.DeviceTokenRepository,
	fcmClient *fcm.Client,
	cfg *config.Config,
) ImportUsecase {
	return &importUsecase{
		providers:    providers,
		analyzer:     analyzer,
		userRepo:     userRepo,
		messageRepo:  messageRepo,
		categoryRepo: categoryRepo,
		senderRepo:   senderRepo,
		activityRepo: activityRepo,
		index:        index,
		deviceRepo:   deviceRepo,
		fcm:          fcmClient,
		cfg:          cfg,
		backoff:      NewBackoff(cfg.ImportMaxAttempts, cfg.ImportBaseDelay),
		sanitize:     bluemonday.StrictPolicy(),
		now:          time.Now,
	}
}

// ImportRecent imports up to maxResults recent messages for the user.
// The report is returned even when individual items fail; only run-level
// failures (account lookup, mailbox listing, category read, dedup read)
// surface as errors.
func (u *importUsecase) ImportRecent(ctx context.Context, userID string, maxResults int, query string) (*dto.ImportReport, error) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user not found")
	}

	provider, account, err := u.resolveAccount(user)
	if err != nil {
		return nil, err
	}

	if maxResults <= 0 {
		maxResults = 20
	}

	items, err := provider.ListRecent(ctx, account, maxResults, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent messages: %w", err)
	}

	categories, err := u.categoryRepo.ListByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	categoryOptions := make([]ai.CategoryOption, 0, len(categories))
	for _, c := range categories {
		categoryOptions = append(categoryOptions, ai.CategoryOption{
			ID:          c.ID,
			Name:        c.Name,
			Description: c.Description,
		})
	}

	sourceIDs := make([]string, 0, len(items))
	for _, item := range items {
		sourceIDs = append(sourceIDs, item.ID)
	}
	existing, err := u.messageRepo.ExistingIDs(userID, sourceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to check stored messages: %w", err)
	}

	newItems := make([]*domain.InboxMessage, 0, len(items))
	for _, item := range items {
		if !existing[item.ID] {
			newItems = append(newItems, item)
		}
	}

	report := &dto.ImportReport{
		Skipped: len(items) - len(newItems),
		Errors:  []string{},
	}
	archived := 0
	var highPriority []*domain.Message

	var mu sync.Mutex
	runInBatches(ctx, len(newItems), u.cfg.ImportBatchSize, u.cfg.ImportBatchDelay, u.sleep, func(index int) {
		item := newItems[index]
		stored, didArchive, err := u.enrichItem(ctx, user, provider, account, item, categoryOptions)

		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			report.Imported++
			if didArchive {
				archived++
			}
			if stored.PriorityScore >= highPriorityThreshold {
				highPriority = append(highPriority, stored)
			}
		case errors.Is(err, errSkipped):
			report.Skipped++
		default:
			report.Errors = append(report.Errors, fmt.Sprintf("%s (%s): %v", item.Subject, item.ID, err))
		}
	})

	if report.Imported > 0 {
		day := u.now().Format(domain.DayFormat)
		delta := repository.ActivityDelta{
			Processed:    report.Imported,
			Archived:     archived,
			MinutesSaved: report.Imported * u.cfg.MinutesSavedPerMail,
		}
		if err := u.activityRepo.AddActivity(userID, day, delta); err != nil {
			// The messages themselves are durable; losing one day's counter
			// bump is not worth failing the run over.
			log.Printf("[Import] Failed to update daily activity for user %s: %v", userID, err)
		}
	}

	if len(highPriority) > 0 {
		u.pushHighPriority(ctx, userID, highPriority)
	}

	log.Printf("[Import] Run complete for user %s: %d imported, %d skipped, %d errors",
		userID, report.Imported, report.Skipped, len(report.Errors))

	return report, nil
}

// pushHighPriority sends one FCM notification per run covering the imported
// messages that scored at or above the threshold. Best effort; a failed push
// never affects the report.
func (u *importUsecase) pushHighPriority(ctx context.Context, userID string, messages []*domain.Message) {
	if u.fcm == nil || u.deviceRepo == nil {
		return
	}

	tokens, err := u.deviceRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Failed to load device tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	title := "High priority mail"
	body := messages[0].Subject
	if len(messages) > 1 {
		body = fmt.Sprintf("%s and %d more", messages[0].Subject, len(messages)-1)
	}

	failed, err := u.fcm.SendToDevices(ctx, tokens, fcm.NotificationData{
		Title: title,
		Body:  body,
		Data: map[string]string{
			"type":       "high_priority",
			"message_id": messages[0].ID,
		},
	})
	if err != nil {
		log.Printf("[FCM] Failed to push high-priority notification: %v", err)
		return
	}
	for _, token := range failed {
		if err := u.deviceRepo.Delete(token); err != nil {
			log.Printf("[FCM] Failed to prune stale token: %v", err)
		}
	}
}

// WatchMailbox registers for push notifications so new mail triggers an
// import without polling.
func (u *importUsecase) WatchMailbox(ctx context.Context, userID string) error {
	user, err := u.userRepo.FindByID(userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("user not found")
	}

	provider, account, err := u.resolveAccount(user)
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("projects/%s/topics/%s", u.cfg.GoogleProjectID, u.cfg.GooglePubSubTopic)
	return provider.Watch(ctx, account, topic)
}

func (u *importUsecase) resolveAccount(user *authdomain.User) (domain.MailProvider, *domain.MailAccount, error) {
	provider, ok := u.providers[user.Provider]
	if !ok {
		return nil, nil, fmt.Errorf("mail import is not supported for provider %q", user.Provider)
	}

	account := &domain.MailAccount{
		Provider:     user.Provider,
		Email:        user.Email,
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		IMAPServer:   user.IMAPServer,
		IMAPPort:     user.IMAPPort,
		IMAPPassword: user.IMAPPassword,
	}
	account.OnTokenRefresh = func(token *oauth2.Token) error {
		user.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			user.RefreshToken = token.RefreshToken
		}
		user.TokenExpiry = token.Expiry
		return u.userRepo.Update(user)
	}

	return provider, account, nil
}
