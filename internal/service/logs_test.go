package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/google/uuid"
)

const testUser = "user-1"

func createLog(t *testing.T, ts *testServices, date time.Time, fields models.LogFields) *models.LogEntry {
	t.Helper()
	entry, err := ts.logSvc.Create(context.Background(), testUser, &models.CreateLogRequest{
		Date:      timePtr(date),
		LogFields: fields,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return entry
}

func TestLogService_MutationsReflectedInRange(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	day := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	a := createLog(t, ts, day.Add(8*time.Hour), models.LogFields{Water: floatPtr(0.5)})
	b := createLog(t, ts, day.Add(12*time.Hour), models.LogFields{Mood: intPtr(3)})
	c := createLog(t, ts, day.Add(20*time.Hour), models.LogFields{Journal: strPtr("long day")})

	patch := &models.PatchLogRequest{Mood: models.NewNullable(5)}
	if _, err := ts.logSvc.Patch(ctx, testUser, b.ID, patch); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if err := ts.logSvc.Delete(ctx, testUser, c.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	got, err := ts.logSvc.ListByRange(ctx, testUser, day, day.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListByRange() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListByRange() returned %d entries, want 2", len(got))
	}
	// newest first
	if got[0].ID != b.ID || got[1].ID != a.ID {
		t.Errorf("ListByRange() order = [%s %s], want [%s %s]", got[0].ID, got[1].ID, b.ID, a.ID)
	}
	if got[0].Mood == nil || *got[0].Mood != 5 {
		t.Errorf("patched mood = %v, want 5", got[0].Mood)
	}

	if n := len(ts.changeLog.entries); n != 5 {
		t.Errorf("change log has %d entries, want 5", n)
	}
	if n := len(ts.publisher.changes); n != 5 {
		t.Errorf("published %d changes, want 5", n)
	}
}

func TestLogService_CreateValidation(t *testing.T) {
	ts := newTestServices()

	tests := []struct {
		name      string
		req       *models.CreateLogRequest
		wantField string
	}{
		{
			name:      "empty entry",
			req:       &models.CreateLogRequest{},
			wantField: "fields",
		},
		{
			name:      "mood out of range",
			req:       &models.CreateLogRequest{LogFields: models.LogFields{Mood: intPtr(6)}},
			wantField: "mood",
		},
		{
			name:      "negative sleep",
			req:       &models.CreateLogRequest{LogFields: models.LogFields{Sleep: floatPtr(-0.5)}},
			wantField: "sleep",
		},
		{
			name:      "negative water",
			req:       &models.CreateLogRequest{LogFields: models.LogFields{Water: floatPtr(-1)}},
			wantField: "water",
		},
		{
			name: "unknown meal type",
			req: &models.CreateLogRequest{LogFields: models.LogFields{
				Meal: &models.Meal{Type: "brunch"},
			}},
			wantField: "meal.type",
		},
		{
			name: "bad meal time",
			req: &models.CreateLogRequest{LogFields: models.LogFields{
				Meal: &models.Meal{Type: models.MealTypeLunch, Time: "25:00"},
			}},
			wantField: "meal.time",
		},
		{
			name:      "client id not v7",
			req:       &models.CreateLogRequest{ID: strPtr(uuid.NewString()), LogFields: models.LogFields{Mood: intPtr(3)}},
			wantField: "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ts.logSvc.Create(context.Background(), testUser, tt.req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want *ValidationError", err)
			}
			if verr.Errors[0].Field != tt.wantField {
				t.Errorf("field = %q, want %q", verr.Errors[0].Field, tt.wantField)
			}
		})
	}

	if n := ts.logs.createCalls; n != 0 {
		t.Errorf("repository Create called %d times, want 0", n)
	}
}

func TestLogService_HoursHaveNoUpperBound(t *testing.T) {
	ts := newTestServices()

	entry := createLog(t, ts, ts.clock.Now(), models.LogFields{Work: floatPtr(26), Sleep: floatPtr(30)})
	if *entry.Work != 26 || *entry.Sleep != 30 {
		t.Errorf("entry = %+v, want work 26 sleep 30", entry.LogFields)
	}
}

func TestLogService_ClientIDReplay(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	queuedAt := ts.clock.now.Add(-time.Hour)
	id := uuidv7At(queuedAt).String()

	req := &models.CreateLogRequest{ID: &id, LogFields: models.LogFields{Sleep: floatPtr(7)}}
	first, err := ts.logSvc.Create(ctx, testUser, req)
	if err != nil {
		t.Fatalf("first Create() error = %v", err)
	}
	if first.ID != id {
		t.Errorf("ID = %s, want client id %s", first.ID, id)
	}
	if !first.Date.Equal(queuedAt) {
		t.Errorf("Date = %v, want the id timestamp %v", first.Date, queuedAt)
	}

	second, err := ts.logSvc.Create(ctx, testUser, req)
	if err != nil {
		t.Fatalf("replayed Create() error = %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("replay returned %s, want %s", second.ID, first.ID)
	}
	if n := ts.logs.countByUser(testUser); n != 1 {
		t.Errorf("store has %d entries, want 1", n)
	}

	if _, err := ts.logSvc.Create(ctx, "intruder", req); !errors.Is(err, ErrForbidden) {
		t.Errorf("foreign replay error = %v, want ErrForbidden", err)
	}
}

func TestLogService_Ownership(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	entry := createLog(t, ts, ts.clock.now, models.LogFields{Work: floatPtr(8)})

	if _, err := ts.logSvc.Get(ctx, "intruder", entry.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Get() error = %v, want ErrForbidden", err)
	}
	patch := &models.PatchLogRequest{Work: models.NewNullable(1.0)}
	if _, err := ts.logSvc.Patch(ctx, "intruder", entry.ID, patch); !errors.Is(err, ErrForbidden) {
		t.Errorf("Patch() error = %v, want ErrForbidden", err)
	}
	if err := ts.logSvc.Delete(ctx, "intruder", entry.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("Delete() error = %v, want ErrForbidden", err)
	}
	if _, err := ts.logSvc.Create(ctx, "", &models.CreateLogRequest{LogFields: models.LogFields{Work: floatPtr(1)}}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("anonymous Create() error = %v, want ErrUnauthenticated", err)
	}

	got, err := ts.logSvc.ListByRange(ctx, "", time.Time{}, ts.clock.now)
	if err != nil || len(got) != 0 {
		t.Errorf("anonymous ListByRange() = %v, %v; want empty", got, err)
	}
}

func TestLogService_PatchNullClearsField(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	entry := createLog(t, ts, ts.clock.now, models.LogFields{Water: floatPtr(1), Mood: intPtr(2)})

	patch := &models.PatchLogRequest{Mood: models.Null[int]()}
	updated, err := ts.logSvc.Patch(ctx, testUser, entry.ID, patch)
	if err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if updated.Mood != nil {
		t.Errorf("Mood = %v, want cleared", *updated.Mood)
	}
	if updated.Water == nil || *updated.Water != 1 {
		t.Errorf("Water = %v, want untouched 1", updated.Water)
	}

	clearAll := &models.PatchLogRequest{Water: models.Null[float64]()}
	var verr *ValidationError
	if _, err := ts.logSvc.Patch(ctx, testUser, entry.ID, clearAll); !errors.As(err, &verr) {
		t.Errorf("Patch() clearing every field error = %v, want *ValidationError", err)
	}
}

func TestLogService_DeleteIsIdempotent(t *testing.T) {
	ts := newTestServices()
	ctx := context.Background()
	entry := createLog(t, ts, ts.clock.now, models.LogFields{Mood: intPtr(4)})

	for i := 0; i < 2; i++ {
		if err := ts.logSvc.Delete(ctx, testUser, entry.ID); err != nil {
			t.Fatalf("Delete() #%d error = %v", i+1, err)
		}
	}
	if _, err := ts.logSvc.Get(ctx, testUser, entry.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	last := ts.changeLog.entries[len(ts.changeLog.entries)-1]
	if last.Operation != models.OperationDelete || last.DeletedAt == nil {
		t.Errorf("last change = %+v, want a delete with DeletedAt", last)
	}
}

func TestLogService_RecordsFoodUsage(t *testing.T) {
	ts := newTestServices()
	createLog(t, ts, ts.clock.now, models.LogFields{Meal: &models.Meal{
		Type:  models.MealTypeBreakfast,
		Items: []string{"Oats", " oats ", "Banana"},
	}})

	if got := ts.foodItems.usage[testUser+"/Oats"]; got != 1 {
		t.Errorf("Oats usage = %d, want 1 (duplicates count once)", got)
	}
	if got := ts.foodItems.usage[testUser+"/Banana"]; got != 1 {
		t.Errorf("Banana usage = %d, want 1", got)
	}
}

func TestLogService_StreakMilestoneNotification(t *testing.T) {
	ts := newTestServices()
	today := ts.clock.now

	createLog(t, ts, today.AddDate(0, 0, -2), models.LogFields{Mood: intPtr(3)})
	createLog(t, ts, today.AddDate(0, 0, -1), models.LogFields{Mood: intPtr(3)})
	if n := len(ts.notifications.byKind(models.NotificationStreakMilestone)); n != 0 {
		t.Fatalf("got %d milestone notifications before day 3, want 0", n)
	}

	createLog(t, ts, today, models.LogFields{Mood: intPtr(3)})
	milestones := ts.notifications.byKind(models.NotificationStreakMilestone)
	if len(milestones) != 1 {
		t.Fatalf("got %d milestone notifications, want 1", len(milestones))
	}
	if milestones[0].Title != "3 Day Streak" {
		t.Errorf("Title = %q, want %q", milestones[0].Title, "3 Day Streak")
	}

	// a second entry on the same day does not repeat the milestone
	createLog(t, ts, today.Add(time.Hour), models.LogFields{Mood: intPtr(4)})
	if n := len(ts.notifications.byKind(models.NotificationStreakMilestone)); n != 1 {
		t.Errorf("got %d milestone notifications, want 1", n)
	}
}

func TestLogService_PersonalRecordNotifications(t *testing.T) {
	ts := newTestServices()
	today := ts.clock.now

	createLog(t, ts, today.AddDate(0, 0, -1), models.LogFields{Sleep: floatPtr(7), Water: floatPtr(2)})
	if n := len(ts.notifications.byKind(models.NotificationPersonalRecord)); n != 0 {
		t.Fatalf("first values produced %d records, want 0", n)
	}

	createLog(t, ts, today, models.LogFields{Sleep: floatPtr(8.5)})
	createLog(t, ts, today.Add(time.Hour), models.LogFields{Water: floatPtr(1.5)})
	createLog(t, ts, today.Add(2*time.Hour), models.LogFields{Water: floatPtr(1)})

	records := ts.notifications.byKind(models.NotificationPersonalRecord)
	if len(records) != 2 {
		t.Fatalf("got %d record notifications, want 2 (sleep, water)", len(records))
	}
	if records[0].Title != "New Sleep Record" {
		t.Errorf("first record = %q, want sleep", records[0].Title)
	}
	if records[1].Title != "Hydration Record" {
		t.Errorf("second record = %q, want hydration", records[1].Title)
	}
}
