package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	authrepo "mailtriage-backend/internal/auth/repository"
	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/repository"
	"mailtriage-backend/pkg/chroma"
	"mailtriage-backend/pkg/config"
)

// MessageUsecase covers reading and triaging stored messages.
type MessageUsecase interface {
	List(userID string, filter repository.MessageFilter) ([]*domain.Message, error)
	Get(userID, id string) (*domain.Message, error)
	// Archive marks the local copy archived and mirrors the change to the
	// mailbox. The mailbox call is best-effort; the local state is the
	// source of truth for the dashboard.
	Archive(ctx context.Context, userID, id string) error
	// Trash soft-deletes the local copy and moves the mailbox original to
	// trash.
	Trash(ctx context.Context, userID, id string) error
}

type messageUsecase struct {
	providers    map[string]domain.MailProvider
	userRepo     authrepo.UserRepository
	messageRepo  repository.MessageRepository
	activityRepo repository.DailyActivityRepository
	index        *chroma.Client
	cfg          *config.Config
	now          func() time.Time
}

func NewMessageUsecase(
	providers map[string]domain.MailProvider,
	userRepo authrepo.UserRepository,
	messageRepo repository.MessageRepository,
	activityRepo repository.DailyActivityRepository,
	index *chroma.Client,
	cfg *config.Config,
) MessageUsecase {
	return &messageUsecase{
		providers:    providers,
		userRepo:     userRepo,
		messageRepo:  messageRepo,
		activityRepo: activityRepo,
		index:        index,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (u *messageUsecase) List(userID string, filter repository.MessageFilter) ([]*domain.Message, error) {
	return u.messageRepo.ListByUser(userID, filter)
}

func (u *messageUsecase) Get(userID, id string) (*domain.Message, error) {
	return u.messageRepo.GetByID(userID, id)
}

func (u *messageUsecase) Archive(ctx context.Context, userID, id string) error {
	message, err := u.messageRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if message == nil {
		return fmt.Errorf("message not found")
	}

	if err := u.messageRepo.SetArchived(userID, id, true); err != nil {
		return err
	}

	u.mirrorToMailbox(ctx, userID, message.SourceID, "archive")

	if err := u.activityRepo.AddActivity(userID, u.now().Format(domain.DayFormat), repository.ActivityDelta{Archived: 1}); err != nil {
		log.Printf("[Email] Failed to record archive activity: %v", err)
	}
	return nil
}

func (u *messageUsecase) Trash(ctx context.Context, userID, id string) error {
	message, err := u.messageRepo.GetByID(userID, id)
	if err != nil {
		return err
	}
	if message == nil {
		return fmt.Errorf("message not found")
	}

	if err := u.messageRepo.SoftDelete(userID, id); err != nil {
		return err
	}

	u.mirrorToMailbox(ctx, userID, message.SourceID, "trash")

	if u.index != nil {
		if err := u.index.DeleteMessage(ctx, id); err != nil {
			log.Printf("[Email] Failed to remove message %s from index: %v", id, err)
		}
	}

	if err := u.activityRepo.AddActivity(userID, u.now().Format(domain.DayFormat), repository.ActivityDelta{Deleted: 1}); err != nil {
		log.Printf("[Email] Failed to record trash activity: %v", err)
	}
	return nil
}

func (u *messageUsecase) mirrorToMailbox(ctx context.Context, userID, sourceID, action string) {
	user, err := u.userRepo.FindByID(userID)
	if err != nil || user == nil {
		log.Printf("[Email] Failed to load user %s for mailbox %s: %v", userID, action, err)
		return
	}
	provider, ok := u.providers[user.Provider]
	if !ok {
		return
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

	switch action {
	case "archive":
		err = provider.Archive(ctx, account, sourceID)
	case "trash":
		err = provider.Trash(ctx, account, sourceID)
	}
	if err != nil {
		log.Printf("[Email] Mailbox %s failed for message %s: %v", action, sourceID, err)
	}
}
