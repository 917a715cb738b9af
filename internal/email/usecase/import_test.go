package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	authdomain "mailtriage-backend/internal/auth/domain"
	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/repository"
	"mailtriage-backend/pkg/ai"
	"mailtriage-backend/pkg/config"

	"github.com/microcosm-cc/bluemonday"
)

// --- fakes ---

type fakeUserRepo struct {
	users map[string]*authdomain.User
}

func (f *fakeUserRepo) Create(user *authdomain.User) error { f.users[user.ID] = user; return nil }
func (f *fakeUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}
func (f *fakeUserRepo) FindByID(id string) (*authdomain.User, error) { return f.users[id], nil }
func (f *fakeUserRepo) Update(user *authdomain.User) error           { return nil }
func (f *fakeUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error {
	return nil
}
func (f *fakeUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (f *fakeUserRepo) DeleteRefreshToken(token string) error { return nil }

type fakeProvider struct {
	mu           sync.Mutex
	messages     []*domain.InboxMessage
	listErr      error
	archiveErr   error
	archiveCalls []string
}

func (f *fakeProvider) ListRecent(ctx context.Context, account *domain.MailAccount, maxResults int, query string) ([]*domain.InboxMessage, error) {
	return f.messages, f.listErr
}
func (f *fakeProvider) Archive(ctx context.Context, account *domain.MailAccount, messageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.archiveErr != nil {
		return f.archiveErr
	}
	f.archiveCalls = append(f.archiveCalls, messageID)
	return nil
}
func (f *fakeProvider) Trash(ctx context.Context, account *domain.MailAccount, messageID string) error {
	return nil
}
func (f *fakeProvider) Watch(ctx context.Context, account *domain.MailAccount, topic string) error {
	return nil
}

type fakeAnalyzer struct {
	mu      sync.Mutex
	calls   int
	failFor map[string]error // keyed by subject
}

func (f *fakeAnalyzer) AnalyzeEmail(ctx context.Context, req *ai.AnalysisRequest) (*ai.EmailAnalysis, error) {
	f.mu.Lock()
	f.calls++
	err := f.failFor[req.Subject]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &ai.EmailAnalysis{
		Summary:        "summary of " + req.Subject,
		PriorityScore:  60,
		ImportantFlags: []string{},
	}, nil
}
func (f *fakeAnalyzer) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	return nil, nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	stored   map[string]*domain.Message // keyed by source ID
	createFn func(message *domain.Message) (bool, error)
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{stored: map[string]*domain.Message{}}
}

func (f *fakeMessageRepo) CreateIfAbsent(message *domain.Message) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFn != nil {
		return f.createFn(message)
	}
	if _, exists := f.stored[message.SourceID]; exists {
		return false, nil
	}
	if message.ID == "" {
		message.ID = "msg-" + message.SourceID
	}
	f.stored[message.SourceID] = message
	return true, nil
}

func (f *fakeMessageRepo) ExistingIDs(userID string, sourceIDs []string) (map[string]bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing := map[string]bool{}
	for _, id := range sourceIDs {
		if _, ok := f.stored[id]; ok {
			existing[id] = true
		}
	}
	return existing, nil
}

func (f *fakeMessageRepo) GetByID(userID, id string) (*domain.Message, error) { return nil, nil }
func (f *fakeMessageRepo) ListByUser(userID string, filter repository.MessageFilter) ([]*domain.Message, error) {
	return nil, nil
}
func (f *fakeMessageRepo) Update(message *domain.Message) error { return nil }
func (f *fakeMessageRepo) SetArchived(userID, id string, archived bool) error {
	return nil
}
func (f *fakeMessageRepo) SoftDelete(userID, id string) error    { return nil }
func (f *fakeMessageRepo) CountByUser(userID string) (int64, error) { return 0, nil }

type fakeCategoryRepo struct {
	categories []*domain.Category
	listErr    error
}

func (f *fakeCategoryRepo) Create(category *domain.Category) error { return nil }
func (f *fakeCategoryRepo) ListByUser(userID string) ([]*domain.Category, error) {
	return f.categories, f.listErr
}
func (f *fakeCategoryRepo) GetByID(userID, id string) (*domain.Category, error) { return nil, nil }
func (f *fakeCategoryRepo) Update(category *domain.Category) error              { return nil }
func (f *fakeCategoryRepo) Delete(userID, id string) error                      { return nil }

type fakeSenderRepo struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newFakeSenderRepo() *fakeSenderRepo {
	return &fakeSenderRepo{counts: map[string]int64{}}
}

func (f *fakeSenderRepo) RecordMessage(userID, sender, displayName string, seenAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[sender]++
	return nil
}
func (f *fakeSenderRepo) TopSenders(userID string, limit int) ([]*domain.SenderDigest, error) {
	return nil, nil
}

type fakeActivityRepo struct {
	mu     sync.Mutex
	deltas []repository.ActivityDelta
	days   []string
}

func (f *fakeActivityRepo) AddActivity(userID, day string, delta repository.ActivityDelta) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas = append(f.deltas, delta)
	f.days = append(f.days, day)
	return nil
}
func (f *fakeActivityRepo) Range(userID, fromDay, toDay string) ([]*domain.DailyActivity, error) {
	return nil, nil
}
func (f *fakeActivityRepo) Totals(userID string) (*domain.DailyActivity, error) {
	return &domain.DailyActivity{}, nil
}

// --- harness ---

type importFixture struct {
	usecase  *importUsecase
	provider *fakeProvider
	analyzer *fakeAnalyzer
	messages *fakeMessageRepo
	senders  *fakeSenderRepo
	activity *fakeActivityRepo
}

func newImportFixture(cfg *config.Config) *importFixture {
	if cfg == nil {
		cfg = &config.Config{
			ImportBatchSize:     4,
			ImportMaxAttempts:   5,
			ImportBaseDelay:     time.Millisecond,
			MinutesSavedPerMail: 2,
		}
	}

	provider := &fakeProvider{}
	analyzer := &fakeAnalyzer{failFor: map[string]error{}}
	messages := newFakeMessageRepo()
	senders := newFakeSenderRepo()
	activity := &fakeActivityRepo{}

	users := &fakeUserRepo{users: map[string]*authdomain.User{
		"user-1": {ID: "user-1", Email: "me@example.com", Provider: "google"},
	}}

	u := &importUsecase{
		providers:    map[string]domain.MailProvider{"google": provider},
		analyzer:     analyzer,
		userRepo:     users,
		messageRepo:  messages,
		categoryRepo: &fakeCategoryRepo{},
		senderRepo:   senders,
		activityRepo: activity,
		cfg:          cfg,
		backoff:      NewBackoff(cfg.ImportMaxAttempts, cfg.ImportBaseDelay),
		sanitize:     bluemonday.StrictPolicy(),
		sleep:        func(ctx context.Context, d time.Duration) {},
		now:          func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}
	u.backoff.Sleep = func(ctx context.Context, d time.Duration) {}

	return &importFixture{
		usecase:  u,
		provider: provider,
		analyzer: analyzer,
		messages: messages,
		senders:  senders,
		activity: activity,
	}
}

func inboxMessage(id, sender string) *domain.InboxMessage {
	return &domain.InboxMessage{
		ID:         id,
		Subject:    "subject " + id,
		From:       sender,
		FromName:   "Sender",
		ReceivedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Body:       "body of " + id,
	}
}

// --- tests ---

func TestImportRecentSkipsStoredMessages(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "x@example.com"),
		inboxMessage("b", "x@example.com"),
		inboxMessage("c", "y@example.com"),
	}
	f.messages.stored["b"] = &domain.Message{SourceID: "b"}

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if report.Imported != 2 {
		t.Errorf("Imported = %d, want 2", report.Imported)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want none", report.Errors)
	}
	// The stored message must not be re-analyzed
	if f.analyzer.calls != 2 {
		t.Errorf("analyzer calls = %d, want 2", f.analyzer.calls)
	}
}

func TestImportRecentIsIdempotent(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "x@example.com"),
		inboxMessage("b", "x@example.com"),
	}

	first, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("first run error = %v", err)
	}
	if first.Imported != 2 || first.Skipped != 0 {
		t.Fatalf("first run = %+v, want 2 imported 0 skipped", first)
	}

	second, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("second run error = %v", err)
	}
	if second.Imported != 0 || second.Skipped != 2 {
		t.Fatalf("second run = %+v, want 0 imported 2 skipped", second)
	}
	if len(f.messages.stored) != 2 {
		t.Fatalf("stored %d messages, want 2", len(f.messages.stored))
	}
}

func TestImportRecentRecordsPerItemFailures(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "x@example.com"),
		inboxMessage("b", "x@example.com"),
		inboxMessage("c", "y@example.com"),
	}
	f.analyzer.failFor["subject b"] = errors.New("model returned 500")

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v, want report with errors instead", err)
	}
	if report.Imported != 2 {
		t.Errorf("Imported = %d, want 2", report.Imported)
	}
	if len(report.Errors) != 1 {
		t.Fatalf("Errors = %v, want exactly 1", report.Errors)
	}
	// The error entry identifies the item by its subject line
	if !strings.Contains(report.Errors[0], "subject b") {
		t.Errorf("error entry = %q, want the failing item's subject in it", report.Errors[0])
	}
	if _, stored := f.messages.stored["b"]; stored {
		t.Error("failed item must not be stored")
	}
}

func TestImportRecentRunLevelFailure(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.listErr = errors.New("connection refused")

	_, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err == nil {
		t.Fatal("expected error when mailbox listing fails")
	}
}

func TestImportRecentSenderDigestCountsBothMessages(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "newsletter@example.com"),
		inboxMessage("b", "newsletter@example.com"),
	}

	if _, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, ""); err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if got := f.senders.counts["newsletter@example.com"]; got != 2 {
		t.Errorf("sender digest count = %d, want 2", got)
	}
}

func TestImportRecentSenderDigestKeyedByBareAddress(t *testing.T) {
	f := newImportFixture(nil)
	// Same mailbox, display name formatted differently per message
	a := inboxMessage("a", "Shop <promo@shop.example.com>")
	b := inboxMessage("b", `"Shop" <promo@shop.example.com>`)
	f.provider.messages = []*domain.InboxMessage{a, b}

	if _, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, ""); err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if got := f.senders.counts["promo@shop.example.com"]; got != 2 {
		t.Errorf("digest count for bare address = %d, want 2 (counts: %v)", got, f.senders.counts)
	}
	if len(f.senders.counts) != 1 {
		t.Errorf("digest rows = %d, want 1 regardless of header formatting", len(f.senders.counts))
	}
}

func TestImportRecentUpdatesDailyActivity(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "x@example.com"),
		inboxMessage("b", "x@example.com"),
		inboxMessage("c", "y@example.com"),
	}

	if _, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, ""); err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}

	if len(f.activity.deltas) != 1 {
		t.Fatalf("activity updates = %d, want 1", len(f.activity.deltas))
	}
	delta := f.activity.deltas[0]
	if delta.Processed != 3 {
		t.Errorf("Processed = %d, want 3", delta.Processed)
	}
	if delta.MinutesSaved != 6 {
		t.Errorf("MinutesSaved = %d, want 6 (2 per message)", delta.MinutesSaved)
	}
	// Auto-archive is off by default
	if delta.Archived != 0 {
		t.Errorf("Archived = %d, want 0 with auto-archive disabled", delta.Archived)
	}
	if f.activity.days[0] != "2025-06-01" {
		t.Errorf("day = %q, want 2025-06-01", f.activity.days[0])
	}
}

func TestImportRecentAutoArchive(t *testing.T) {
	cfg := &config.Config{
		ImportBatchSize:     4,
		ImportMaxAttempts:   5,
		ImportBaseDelay:     time.Millisecond,
		ImportAutoArchive:   true,
		MinutesSavedPerMail: 2,
	}
	f := newImportFixture(cfg)
	f.provider.messages = []*domain.InboxMessage{
		inboxMessage("a", "x@example.com"),
		inboxMessage("b", "x@example.com"),
	}

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if len(f.provider.archiveCalls) != 2 {
		t.Errorf("archive calls = %d, want 2", len(f.provider.archiveCalls))
	}
	if f.activity.deltas[0].Archived != 2 {
		t.Errorf("Archived = %d, want 2", f.activity.deltas[0].Archived)
	}
	if report.Imported != 2 {
		t.Errorf("Imported = %d, want 2", report.Imported)
	}
}

func TestImportRecentArchiveFailureDoesNotFailItem(t *testing.T) {
	cfg := &config.Config{
		ImportBatchSize:     4,
		ImportMaxAttempts:   5,
		ImportBaseDelay:     time.Millisecond,
		ImportAutoArchive:   true,
		MinutesSavedPerMail: 2,
	}
	f := newImportFixture(cfg)
	f.provider.archiveErr = errors.New("mailbox unavailable")
	f.provider.messages = []*domain.InboxMessage{inboxMessage("a", "x@example.com")}

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if report.Imported != 1 {
		t.Errorf("Imported = %d, want 1 despite archive failure", report.Imported)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want none", report.Errors)
	}
	if f.activity.deltas[0].Archived != 0 {
		t.Errorf("Archived = %d, want 0 when archive call failed", f.activity.deltas[0].Archived)
	}
}

func TestImportRecentInsertRaceCountsAsSkipped(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{inboxMessage("a", "x@example.com")}
	// Simulate another run winning the insert between dedup check and write
	f.messages.createFn = func(message *domain.Message) (bool, error) {
		return false, nil
	}

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if report.Imported != 0 {
		t.Errorf("Imported = %d, want 0", report.Imported)
	}
	if report.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", report.Skipped)
	}
	if len(report.Errors) != 0 {
		t.Errorf("Errors = %v, want none", report.Errors)
	}
}

func TestImportRecentRetriesRateLimitedAnalysis(t *testing.T) {
	f := newImportFixture(nil)
	f.provider.messages = []*domain.InboxMessage{inboxMessage("a", "x@example.com")}

	var mu sync.Mutex
	attempts := 0
	f.usecase.analyzer = analyzerFunc(func(ctx context.Context, req *ai.AnalysisRequest) (*ai.EmailAnalysis, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 3 {
			return nil, fmt.Errorf("rate limit exceeded")
		}
		return &ai.EmailAnalysis{Summary: "ok", PriorityScore: 50, ImportantFlags: []string{}}, nil
	})

	report, err := f.usecase.ImportRecent(context.Background(), "user-1", 10, "")
	if err != nil {
		t.Fatalf("ImportRecent() error = %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if report.Imported != 1 {
		t.Errorf("Imported = %d, want 1", report.Imported)
	}
}

type analyzerFunc func(ctx context.Context, req *ai.AnalysisRequest) (*ai.EmailAnalysis, error)

func (f analyzerFunc) AnalyzeEmail(ctx context.Context, req *ai.AnalysisRequest) (*ai.EmailAnalysis, error) {
	return f(ctx, req)
}
func (f analyzerFunc) GenerateSynonyms(ctx context.Context, word string) ([]string, error) {
	return nil, nil
}
