package service

import (
	"testing"
	"time"

	"github.com/maheshrc27/composer-api/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, slotZone)

func day(offset int) string {
	return testNow.AddDate(0, 0, offset).Format(dateLayout)
}

func TestGenerateRowsDaily(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(0),
		EndDate:   day(4),
		Frequency: models.FrequencyDaily,
		TimeSlot:  "09:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}

	seen := make(map[string]struct{})
	for i, row := range rows {
		if row.ScheduledDate != day(i) {
			t.Errorf("row %d: expected date %s, got %s", i, day(i), row.ScheduledDate)
		}
		if row.ScheduledTime != "09:00" {
			t.Errorf("row %d: expected time 09:00, got %s", i, row.ScheduledTime)
		}
		if row.Status != models.RowStatusDraft {
			t.Errorf("row %d: expected draft status, got %s", i, row.Status)
		}
		if row.ClientRef == "" {
			t.Errorf("row %d: missing client ref", i)
		}
		if _, dup := seen[row.ID]; dup {
			t.Errorf("row %d: duplicate id %s", i, row.ID)
		}
		seen[row.ID] = struct{}{}
	}
}

func TestGenerateRowsMaxRowsCap(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(0),
		EndDate:   day(70),
		Frequency: models.FrequencyDaily,
		TimeSlot:  "09:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != models.CapsFacebook.MaxRows {
		t.Fatalf("expected %d rows, got %d", models.CapsFacebook.MaxRows, len(rows))
	}
}

func TestGenerateRowsMaxDaysHorizon(t *testing.T) {
	// Weekly keeps the row count under the row cap, so the horizon is
	// the binding limit: days 0..74 from today hold 11 Sundays.
	strategy := &models.Strategy{
		StartDate: day(0),
		EndDate:   day(365),
		Frequency: models.FrequencyWeekly,
		TimeSlot:  "09:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 11 {
		t.Fatalf("expected 11 weekly rows inside the horizon, got %d", len(rows))
	}
	for i, row := range rows {
		if row.ScheduledDate != day(i*7) {
			t.Errorf("row %d: expected date %s, got %s", i, day(i*7), row.ScheduledDate)
		}
	}
}

func TestGenerateRowsInstagramCaps(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(0),
		EndDate:   day(100),
		Frequency: models.FrequencyDaily,
		TimeSlot:  "18:30",
		PostType:  models.PostTypeReel,
	}

	rows, err := GenerateRows(strategy, models.CapsInstagram, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != models.CapsInstagram.MaxRows {
		t.Fatalf("expected %d rows, got %d", models.CapsInstagram.MaxRows, len(rows))
	}
}

func TestGenerateRowsSingleDayWithoutEndDate(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(3),
		Frequency: models.FrequencyDaily,
		TimeSlot:  "12:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ScheduledDate != day(3) {
		t.Errorf("expected date %s, got %s", day(3), rows[0].ScheduledDate)
	}
}

func TestGenerateRowsMonthly(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(0),
		EndDate:   day(70),
		Frequency: models.FrequencyMonthly,
		TimeSlot:  "09:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := testNow.Day()
	for i, row := range rows {
		d, err := time.ParseInLocation(dateLayout, row.ScheduledDate, slotZone)
		if err != nil {
			t.Fatalf("row %d: bad date %s", i, row.ScheduledDate)
		}
		if d.Day() != start {
			t.Errorf("row %d: expected day-of-month %d, got %d", i, start, d.Day())
		}
	}
}

func TestGenerateRowsPastStartDate(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: day(-10),
		EndDate:   day(-5),
		Frequency: models.FrequencyDaily,
		TimeSlot:  "09:00",
		PostType:  models.PostTypePhoto,
	}

	rows, err := GenerateRows(strategy, models.CapsFacebook, testNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("expected 6 rows for a past-dated range, got %d", len(rows))
	}
}

func TestGenerateRowsInvalidDates(t *testing.T) {
	strategy := &models.Strategy{
		StartDate: "03/01/2026",
		Frequency: models.FrequencyDaily,
	}
	if _, err := GenerateRows(strategy, models.CapsFacebook, testNow); err == nil {
		t.Error("expected error for malformed start date")
	}

	strategy = &models.Strategy{
		StartDate: day(0),
		EndDate:   "not-a-date",
		Frequency: models.FrequencyDaily,
	}
	if _, err := GenerateRows(strategy, models.CapsFacebook, testNow); err == nil {
		t.Error("expected error for malformed end date")
	}
}
