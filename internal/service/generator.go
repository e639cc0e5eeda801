package service

import (
	"fmt"
	"time"

	"github.com/maheshrc27/composer-api/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const dateLayout = "2006-01-02"

// slotZone is the fixed civil offset the dashboard schedules in. Every
// generation pass runs entirely in this location so day arithmetic cannot
// drift across a zone boundary.
var slotZone = time.FixedZone("UTC+05:30", 5*3600+30*60)

// GenerateRows expands a strategy into an ordered list of draft rows, one
// per included calendar day. Two independent caps apply: the maximum span
// measured from today and the maximum emitted-row count, both taken from
// the platform capability descriptor.
func GenerateRows(strategy *models.Strategy, caps models.PlatformCaps, now time.Time) ([]*models.Row, error) {
	start, err := time.ParseInLocation(dateLayout, strategy.StartDate, slotZone)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}

	// Absent end date means a single-day schedule regardless of frequency.
	if strategy.EndDate == "" {
		row, err := newDraftRow(strategy, start)
		if err != nil {
			return nil, err
		}
		return []*models.Row{row}, nil
	}

	end, err := time.ParseInLocation(dateLayout, strategy.EndDate, slotZone)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}

	now = now.In(slotZone)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, slotZone)
	horizon := today.AddDate(0, 0, caps.MaxDays)

	var rows []*models.Row
	for d := start; !d.After(end) && d.Before(horizon) && len(rows) < caps.MaxRows; d = d.AddDate(0, 0, 1) {
		if !includeDay(strategy.Frequency, start, d) {
			continue
		}
		row, err := newDraftRow(strategy, d)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// includeDay applies the frequency filter. Custom frequencies carry a cron
// expression the backend interprets; here they behave as daily.
func includeDay(frequency string, start, day time.Time) bool {
	switch frequency {
	case models.FrequencyWeekly:
		return day.Weekday() == start.Weekday()
	case models.FrequencyMonthly:
		return day.Day() == start.Day()
	default:
		return true
	}
}

func newDraftRow(strategy *models.Strategy, day time.Time) (*models.Row, error) {
	id, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	ref, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	return &models.Row{
		ID:            "row-" + id,
		ClientRef:     ref,
		ScheduledDate: day.Format(dateLayout),
		ScheduledTime: strategy.TimeSlot,
		PostType:      strategy.PostType,
		Status:        models.RowStatusDraft,
	}, nil
}
