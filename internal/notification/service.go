package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	authrepo "mailtriage-backend/internal/auth/repository"
	"mailtriage-backend/internal/email/usecase"
	"mailtriage-backend/pkg/fcm"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes on mailbox changes.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service consumes Gmail push notifications from Pub/Sub, triggers an
// import run for the affected user, and pushes an FCM notification when the
// run brings in new mail.
type Service struct {
	pubsubClient  *pubsub.Client
	userRepo      authrepo.UserRepository
	deviceRepo    authrepo.DeviceTokenRepository
	fcmClient     *fcm.Client
	importUsecase usecase.ImportUsecase
	topicName     string
	subName       string

	// Gmail redelivers notifications; tracking the last historyId per user
	// keeps redeliveries from triggering duplicate imports.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName, credentialsFile string, userRepo authrepo.UserRepository, deviceRepo authrepo.DeviceTokenRepository, fcmClient *fcm.Client, importUsecase usecase.ImportUsecase) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		userRepo:      userRepo,
		deviceRepo:    deviceRepo,
		fcmClient:     fcmClient,
		importUsecase: importUsecase,
		topicName:     topicName,
		subName:       topicName + "-sub",
		lastHistoryID: make(map[string]uint64),
	}, nil
}

// Start blocks receiving notifications until ctx is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}

	log.Printf("[PubSub] Received notification for: %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	user, err := s.userRepo.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding user by email %s: %v", notification.EmailAddress, err)
		return
	}
	if user == nil {
		log.Printf("[PubSub] User not found for email: %s", notification.EmailAddress)
		return
	}

	s.mu.Lock()
	lastHID, seen := s.lastHistoryID[user.ID]
	if seen && notification.HistoryID <= lastHID {
		s.mu.Unlock()
		log.Printf("[PubSub] Skipping duplicate notification for user %s (historyId %d <= last %d)", user.ID, notification.HistoryID, lastHID)
		return
	}
	s.lastHistoryID[user.ID] = notification.HistoryID
	s.mu.Unlock()

	// The import handles dedup itself, so over-triggering is safe, just
	// wasteful of rate-limit budget.
	report, err := s.importUsecase.ImportRecent(context.Background(), user.ID, 10, "")
	if err != nil {
		log.Printf("[PubSub] Import triggered by notification failed for user %s: %v", user.ID, err)
		return
	}
	if report.Imported == 0 {
		return
	}

	s.pushNewMail(user.ID, report.Imported)
}

func (s *Service) pushNewMail(userID string, count int) {
	if s.fcmClient == nil || s.deviceRepo == nil {
		return
	}

	tokens, err := s.deviceRepo.GetTokensByUserID(userID)
	if err != nil {
		log.Printf("[FCM] Error getting device tokens for user %s: %v", userID, err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	body := fmt.Sprintf("%d new messages were triaged into your inbox", count)
	if count == 1 {
		body = "1 new message was triaged into your inbox"
	}

	failedTokens, err := s.fcmClient.SendToDevices(context.Background(), tokens, fcm.NotificationData{
		Title: "New mail",
		Body:  body,
		Data: map[string]string{
			"type":  "import_complete",
			"count": fmt.Sprintf("%d", count),
		},
	})
	if err != nil {
		log.Printf("[FCM] Error sending notifications: %v", err)
		return
	}

	for _, token := range failedTokens {
		if err := s.deviceRepo.Delete(token); err != nil {
			log.Printf("[FCM] Failed to prune stale token: %v", err)
		}
	}
}
