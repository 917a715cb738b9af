package usecase

import (
	"time"

	"mailtriage-backend/internal/email/domain"
	"mailtriage-backend/internal/email/dto"
	"mailtriage-backend/internal/email/repository"
)

const (
	statsTrendDays  = 30
	statsTopSenders = 10
)

type StatsUsecase interface {
	// Dashboard assembles totals, the per-category breakdown, top senders
	// and the recent daily trend in one response.
	Dashboard(userID string) (*dto.StatsResponse, error)
	Daily(userID string) ([]dto.DailyActivity, error)
	Senders(userID string) ([]dto.SenderActivity, error)
}

type statsUsecase struct {
	statsRepo    repository.StatsRepository
	senderRepo   repository.SenderDigestRepository
	activityRepo repository.DailyActivityRepository
	now          func() time.Time
}

func NewStatsUsecase(
	statsRepo repository.StatsRepository,
	senderRepo repository.SenderDigestRepository,
	activityRepo repository.DailyActivityRepository,
) StatsUsecase {
	return &statsUsecase{
		statsRepo:    statsRepo,
		senderRepo:   senderRepo,
		activityRepo: activityRepo,
		now:          time.Now,
	}
}

func (u *statsUsecase) Dashboard(userID string) (*dto.StatsResponse, error) {
	totals, err := u.activityRepo.Totals(userID)
	if err != nil {
		return nil, err
	}

	perCategory, err := u.statsRepo.CountPerCategory(userID)
	if err != nil {
		return nil, err
	}

	daily, err := u.Daily(userID)
	if err != nil {
		return nil, err
	}
	senders, err := u.Senders(userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.StatsResponse{
		TotalProcessed:    int64(totals.Processed),
		TotalArchived:     int64(totals.Archived),
		TotalDeleted:      int64(totals.Deleted),
		TotalMinutesSaved: int64(totals.MinutesSaved),
		PerCategory:       make([]dto.CategoryCount, 0, len(perCategory)),
		TopSenders:        senders,
		Daily:             daily,
	}

	for _, c := range perCategory {
		resp.PerCategory = append(resp.PerCategory, dto.CategoryCount{
			CategoryID:   c.CategoryID,
			CategoryName: c.CategoryName,
			Count:        c.Count,
		})
	}

	return resp, nil
}

func (u *statsUsecase) Daily(userID string) ([]dto.DailyActivity, error) {
	now := u.now()
	from := now.AddDate(0, 0, -(statsTrendDays - 1)).Format(domain.DayFormat)
	to := now.Format(domain.DayFormat)

	activities, err := u.activityRepo.Range(userID, from, to)
	if err != nil {
		return nil, err
	}

	daily := make([]dto.DailyActivity, 0, len(activities))
	for _, d := range activities {
		daily = append(daily, dto.DailyActivity{
			Day:          d.Day,
			Processed:    d.Processed,
			Archived:     d.Archived,
			Deleted:      d.Deleted,
			MinutesSaved: d.MinutesSaved,
		})
	}
	return daily, nil
}

func (u *statsUsecase) Senders(userID string) ([]dto.SenderActivity, error) {
	digests, err := u.senderRepo.TopSenders(userID, statsTopSenders)
	if err != nil {
		return nil, err
	}

	senders := make([]dto.SenderActivity, 0, len(digests))
	for _, s := range digests {
		senders = append(senders, dto.SenderActivity{
			Sender:       s.Sender,
			DisplayName:  s.DisplayName,
			MessageCount: s.MessageCount,
			LastSeenAt:   s.LastSeenAt,
		})
	}
	return senders, nil
}
