package usecase

import (
	"testing"
	"time"

	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/repository"
)

type statsRepoStub struct {
	counts []repository.CategoryCount
}

func (s *statsRepoStub) CountPerCategory(userID string) ([]repository.CategoryCount, error) {
	return s.counts, nil
}

type activityRepoStub struct {
	fakeActivityRepo
	totals     *domain.DailyActivity
	rangeFrom  string
	rangeTo    string
	activities []*domain.DailyActivity
}

func (s *activityRepoStub) Range(userID, fromDay, toDay string) ([]*domain.DailyActivity, error) {
	s.rangeFrom, s.rangeTo = fromDay, toDay
	return s.activities, nil
}

func (s *activityRepoStub) Totals(userID string) (*domain.DailyActivity, error) {
	return s.totals, nil
}

func TestStatsDailyWindow(t *testing.T) {
	activity := &activityRepoStub{
		activities: []*domain.DailyActivity{
			{Day: "2025-06-01", Processed: 3, MinutesSaved: 6},
		},
	}
	u := &statsUsecase{
		statsRepo:    &statsRepoStub{},
		senderRepo:   newFakeSenderRepo(),
		activityRepo: activity,
		now:          func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}

	daily, err := u.Daily("user-1")
	if err != nil {
		t.Fatalf("Daily() error = %v", err)
	}

	// A 30 day trend ending today starts 29 days back
	if activity.rangeFrom != "2025-05-17" {
		t.Errorf("range from = %q, want 2025-05-17", activity.rangeFrom)
	}
	if activity.rangeTo != "2025-06-15" {
		t.Errorf("range to = %q, want 2025-06-15", activity.rangeTo)
	}
	if len(daily) != 1 || daily[0].Day != "2025-06-01" || daily[0].Processed != 3 {
		t.Errorf("daily = %+v, want the single stored day", daily)
	}
}

func TestStatsDashboardAssembly(t *testing.T) {
	u := &statsUsecase{
		statsRepo: &statsRepoStub{counts: []repository.CategoryCount{
			{CategoryID: "cat-1", CategoryName: "Work", Count: 12},
		}},
		senderRepo: newFakeSenderRepo(),
		activityRepo: &activityRepoStub{
			totals: &domain.DailyActivity{Processed: 40, Archived: 5, Deleted: 2, MinutesSaved: 80},
		},
		now: func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) },
	}

	resp, err := u.Dashboard("user-1")
	if err != nil {
		t.Fatalf("Dashboard() error = %v", err)
	}
	if resp.TotalProcessed != 40 || resp.TotalMinutesSaved != 80 {
		t.Errorf("totals = %d processed %d minutes, want 40/80", resp.TotalProcessed, resp.TotalMinutesSaved)
	}
	if len(resp.PerCategory) != 1 || resp.PerCategory[0].Count != 12 {
		t.Errorf("PerCategory = %+v, want one entry with count 12", resp.PerCategory)
	}
	if resp.TopSenders == nil || resp.Daily == nil {
		t.Error("TopSenders and Daily must be empty slices, not nil")
	}
}
