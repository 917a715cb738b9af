package dto

import "time"

// ImportRequest tunes a manual import run. Zero values fall back to the
// server defaults from configuration.
type ImportRequest struct {
	MaxResults int    `json:"maxResults"`
	Query      string `json:"query"`
}

// ImportReport is returned for every import run, including partial failures.
type ImportReport struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type UpdateCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ListMessagesRequest struct {
	CategoryID string `form:"categoryId"`
	Archived   *bool  `form:"archived"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

type SearchRequest struct {
	Query    string `form:"q" binding:"required"`
	Semantic bool   `form:"semantic"`
	Limit    int    `form:"limit"`
}

type SemanticSearchRequest struct {
	Query string `json:"q" binding:"required"`
	Limit int    `json:"limit"`
}

// StatsResponse aggregates triage activity for the stats dashboard.
type StatsResponse struct {
	TotalProcessed    int64            `json:"totalProcessed"`
	TotalArchived     int64            `json:"totalArchived"`
	TotalDeleted      int64            `json:"totalDeleted"`
	TotalMinutesSaved int64            `json:"totalMinutesSaved"`
	PerCategory       []CategoryCount  `json:"perCategory"`
	TopSenders        []SenderActivity `json:"topSenders"`
	Daily             []DailyActivity  `json:"daily"`
}

type CategoryCount struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Count        int64  `json:"count"`
}

type SenderActivity struct {
	Sender       string    `json:"sender"`
	DisplayName  string    `json:"displayName"`
	MessageCount int64     `json:"messageCount"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
}

type DailyActivity struct {
	Day          string `json:"day"`
	Processed    int    `json:"processed"`
	Archived     int    `json:"archived"`
	Deleted      int    `json:"deleted"`
	MinutesSaved int    `json:"minutesSaved"`
}
