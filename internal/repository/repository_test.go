package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/db"
	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := db.OpenMemory(context.Background())
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func day(s string) time.Time {
	t, err := time.Parse(models.DayLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLogRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(openTestDB(t))

	created, err := repo.Create(ctx, &models.LogEntry{
		UserID: "user-1",
		Date:   day("2024-03-01").Add(8*time.Hour + 1500*time.Microsecond),
		LogFields: models.LogFields{
			Water: floatPtr(0.5),
			Mood:  intPtr(4),
			Meal: &models.Meal{
				Type:  models.MealTypeBreakfast,
				Items: []string{"oats", "coffee"},
				Time:  "08:00",
			},
			Custom: []models.CustomMetric{{Name: "steps", Value: 9000}},
		},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Fatal("Create() did not assign an id")
	}
	if got := created.DateKey(); got != "2024-03-01T08:00:00.001Z" {
		t.Errorf("Create() date = %s, want millisecond precision", got)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Meal == nil || len(got.Meal.Items) != 2 || got.Meal.Items[1] != "coffee" {
		t.Errorf("GetByID() meal = %+v", got.Meal)
	}
	if got.Sleep != nil {
		t.Errorf("GetByID() sleep = %v, want nil", *got.Sleep)
	}
	if len(got.Custom) != 1 || got.Custom[0].Value != 9000 {
		t.Errorf("GetByID() custom = %+v", got.Custom)
	}

	got.Water = nil
	got.Sleep = floatPtr(7.5)
	updated, err := repo.Update(ctx, got)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Water != nil || updated.Sleep == nil || *updated.Sleep != 7.5 {
		t.Errorf("Update() did not overwrite fields: %+v", updated.LogFields)
	}

	if err := repo.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestLogRepository_ClientID(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(openTestDB(t))

	entry, err := repo.Create(ctx, &models.LogEntry{
		ID:        "0190b000-0000-7000-8000-0000000000aa",
		UserID:    "user-1",
		Date:      day("2024-03-01"),
		LogFields: models.LogFields{Water: floatPtr(1)},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if entry.ID != "0190b000-0000-7000-8000-0000000000aa" {
		t.Errorf("Create() id = %s, want client id", entry.ID)
	}
}

func TestLogRepository_ListByRange(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(openTestDB(t))

	for _, d := range []string{"2024-03-01", "2024-03-02", "2024-03-05", "2024-03-09"} {
		if _, err := repo.Create(ctx, &models.LogEntry{
			UserID:    "user-1",
			Date:      day(d).Add(12 * time.Hour),
			LogFields: models.LogFields{Water: floatPtr(1)},
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}
	if _, err := repo.Create(ctx, &models.LogEntry{
		UserID:    "user-2",
		Date:      day("2024-03-02"),
		LogFields: models.LogFields{Water: floatPtr(1)},
	}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	entries, err := repo.ListByRange(ctx, "user-1", day("2024-03-02"), day("2024-03-05").Add(24*time.Hour-time.Millisecond))
	if err != nil {
		t.Fatalf("ListByRange() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ListByRange() returned %d entries, want 2", len(entries))
	}
	if entries[0].Day() != "2024-03-05" || entries[1].Day() != "2024-03-02" {
		t.Errorf("ListByRange() order = %s, %s; want newest first", entries[0].Day(), entries[1].Day())
	}

	all, err := repo.ListAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 4 || all[0].Day() != "2024-03-01" {
		t.Errorf("ListAll() = %d entries starting %s, want 4 oldest first", len(all), all[0].Day())
	}
}

func TestLogRepository_GetByUserAndDate(t *testing.T) {
	ctx := context.Background()
	repo := NewLogRepository(openTestDB(t))
	date := day("2024-03-01").Add(9 * time.Hour)

	first, err := repo.Create(ctx, &models.LogEntry{UserID: "user-1", Date: date, LogFields: models.LogFields{Water: floatPtr(1)}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, &models.LogEntry{UserID: "user-1", Date: date, LogFields: models.LogFields{Water: floatPtr(2)}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.GetByUserAndDate(ctx, "user-1", date)
	if err != nil {
		t.Fatalf("GetByUserAndDate() error = %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("GetByUserAndDate() = %s, want oldest entry %s", got.ID, first.ID)
	}

	if _, err := repo.GetByUserAndDate(ctx, "user-1", date.Add(time.Millisecond)); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUserAndDate() with other instant error = %v, want ErrNotFound", err)
	}
	if _, err := repo.GetByUserAndDate(ctx, "user-2", date); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByUserAndDate() for other user error = %v, want ErrNotFound", err)
	}
}

func TestHistoryRepository_TrimsToKeep(t *testing.T) {
	ctx := context.Background()
	repo := NewHistoryRepository(openTestDB(t))

	var last *models.HistoryEntry
	for i := 0; i < 12; i++ {
		entry, err := repo.Append(ctx, &models.HistoryEntry{
			UserID:   "user-1",
			LogID:    "log-1",
			Action:   models.HistoryActionUpdate,
			Snapshot: models.LogEntry{ID: "log-1", UserID: "user-1", Date: day("2024-03-01"), LogFields: models.LogFields{Mood: intPtr(i%5 + 1)}},
		}, 10)
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		last = entry
	}
	if _, err := repo.Append(ctx, &models.HistoryEntry{
		UserID: "user-2", LogID: "log-2", Action: models.HistoryActionDelete,
		Snapshot: models.LogEntry{ID: "log-2", UserID: "user-2", Date: day("2024-03-01")},
	}, 10); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	count, err := repo.Count(ctx, "user-1")
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 10 {
		t.Errorf("Count() = %d, want 10", count)
	}

	latest, err := repo.Latest(ctx, "user-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if latest.ID != last.ID {
		t.Errorf("Latest() id = %d, want %d", latest.ID, last.ID)
	}
	if latest.Snapshot.Mood == nil || *latest.Snapshot.Mood != 12%5 {
		t.Errorf("Latest() snapshot mood = %v", latest.Snapshot.Mood)
	}

	if err := repo.Delete(ctx, latest.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	next, err := repo.Latest(ctx, "user-1")
	if err != nil {
		t.Fatalf("Latest() error = %v", err)
	}
	if next == nil || next.ID >= latest.ID {
		t.Errorf("Latest() after delete = %+v, want an older entry", next)
	}

	empty, err := repo.Latest(ctx, "user-3")
	if err != nil || empty != nil {
		t.Errorf("Latest() for empty ledger = %+v, %v; want nil, nil", empty, err)
	}
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)
	logs := NewLogRepository(database)
	tx := NewTransactor(database)

	boom := errors.New("boom")
	err := tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := logs.Create(ctx, &models.LogEntry{UserID: "user-1", Date: day("2024-03-01"), LogFields: models.LogFields{Water: floatPtr(1)}}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("RunInTx() error = %v, want boom", err)
	}

	all, err := logs.ListAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAll() = %d entries after rollback, want 0", len(all))
	}
}

func TestChangeLogRepository_GetSince(t *testing.T) {
	ctx := context.Background()
	repo := NewChangeLogRepository(openTestDB(t))

	for i := 0; i < 5; i++ {
		if _, err := repo.Append(ctx, &models.ChangeLogInput{
			EntityType: models.EntityTypeLogEntry,
			Operation:  models.OperationCreate,
			EntityID:   "log-1",
			UserID:     "user-1",
			Data:       map[string]int{"n": i},
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	now := time.Now()
	if _, err := repo.Append(ctx, &models.ChangeLogInput{
		EntityType: models.EntityTypeLogEntry,
		Operation:  models.OperationDelete,
		EntityID:   "log-1",
		UserID:     "user-1",
		DeletedAt:  &now,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	page, err := repo.GetSince(ctx, "user-1", 0, 4)
	if err != nil {
		t.Fatalf("GetSince() error = %v", err)
	}
	if len(page.Changes) != 4 || !page.HasMore {
		t.Fatalf("GetSince() = %d changes, has_more %v; want 4, true", len(page.Changes), page.HasMore)
	}
	if string(page.Changes[0].Data) != `{"n":0}` {
		t.Errorf("GetSince() data = %s", page.Changes[0].Data)
	}

	rest, err := repo.GetSince(ctx, "user-1", page.NextCursor, 4)
	if err != nil {
		t.Fatalf("GetSince() error = %v", err)
	}
	if len(rest.Changes) != 2 || rest.HasMore {
		t.Fatalf("GetSince() second page = %d changes, has_more %v; want 2, false", len(rest.Changes), rest.HasMore)
	}
	if rest.Changes[1].DeletedAt == nil || rest.Changes[1].Operation != models.OperationDelete {
		t.Errorf("GetSince() delete entry = %+v", rest.Changes[1])
	}

	empty, err := repo.GetSince(ctx, "user-1", rest.NextCursor, 4)
	if err != nil {
		t.Fatalf("GetSince() error = %v", err)
	}
	if empty.NextCursor != rest.NextCursor {
		t.Errorf("GetSince() with no changes moved cursor to %d, want %d", empty.NextCursor, rest.NextCursor)
	}

	latest, err := repo.GetLatestCursor(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetLatestCursor() error = %v", err)
	}
	if latest != rest.NextCursor {
		t.Errorf("GetLatestCursor() = %d, want %d", latest, rest.NextCursor)
	}
	if c, _ := repo.GetLatestCursor(ctx, "nobody"); c != 0 {
		t.Errorf("GetLatestCursor() for unknown user = %d, want 0", c)
	}
}

func TestIdempotencyRepository_StoreAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewIdempotencyRepository(openTestDB(t))

	miss, err := repo.Get(ctx, "k1", "POST /api/v1/logs", "user-1")
	if err != nil || miss != nil {
		t.Fatalf("Get() before store = %+v, %v; want nil, nil", miss, err)
	}

	if err := repo.Store(ctx, "k1", "POST /api/v1/logs", "user-1", []byte(`{"id":"a"}`), 201); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	hit, err := repo.Get(ctx, "k1", "POST /api/v1/logs", "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if hit == nil || hit.StatusCode != 201 || string(hit.ResponseBody) != `{"id":"a"}` {
		t.Errorf("Get() = %+v", hit)
	}

	other, err := repo.Get(ctx, "k1", "POST /api/v1/logs", "user-2")
	if err != nil || other != nil {
		t.Errorf("Get() for other user = %+v, %v; want nil, nil", other, err)
	}
}

func TestFoodItemRepository_RecordUsage(t *testing.T) {
	ctx := context.Background()
	repo := NewFoodItemRepository(openTestDB(t))
	now := time.Now()

	for _, name := range []string{"oats", "rice", "oats", "oats", "rice", "apple"} {
		if err := repo.RecordUsage(ctx, "user-1", name, now); err != nil {
			t.Fatalf("RecordUsage() error = %v", err)
		}
	}

	items, err := repo.ListByUser(ctx, "user-1", 10)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("ListByUser() = %d items, want 3", len(items))
	}
	if items[0].Name != "oats" || items[0].UsageCount != 3 {
		t.Errorf("ListByUser()[0] = %s x%d, want oats x3", items[0].Name, items[0].UsageCount)
	}
	if items[1].Name != "rice" || items[1].UsageCount != 2 {
		t.Errorf("ListByUser()[1] = %s x%d, want rice x2", items[1].Name, items[1].UsageCount)
	}
}

func TestCatalogRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewCatalogRepository(openTestDB(t))

	sports, err := repo.ListSports(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSports() error = %v", err)
	}
	if len(sports) != 8 {
		t.Errorf("ListSports() = %d, want 8 defaults", len(sports))
	}

	owner := "user-1"
	if _, err := repo.CreateSport(ctx, &models.Sport{UserID: &owner, Name: "Climbing", Category: "strength"}); err != nil {
		t.Fatalf("CreateSport() error = %v", err)
	}
	if sports, _ = repo.ListSports(ctx, "user-1"); len(sports) != 9 {
		t.Errorf("ListSports() for owner = %d, want 9", len(sports))
	}
	if sports, _ = repo.ListSports(ctx, "user-2"); len(sports) != 8 {
		t.Errorf("ListSports() for other user = %d, want 8", len(sports))
	}

	if _, err := repo.CreateExercise(ctx, &models.CatalogExercise{UserID: &owner, Name: "Dip", MuscleGroup: "chest"}); err != nil {
		t.Fatalf("CreateExercise() error = %v", err)
	}
	exercises, err := repo.ListExercises(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListExercises() error = %v", err)
	}
	if len(exercises) != 9 {
		t.Errorf("ListExercises() = %d, want 9", len(exercises))
	}

	routine, err := repo.CreateRoutine(ctx, &models.Routine{
		UserID: "user-1",
		Name:   "Leg day",
		Items:  []models.RoutineItem{{Exercise: "Squat", Sets: 5, Reps: 5, Weight: 100}},
	})
	if err != nil {
		t.Fatalf("CreateRoutine() error = %v", err)
	}
	got, err := repo.GetRoutine(ctx, routine.ID)
	if err != nil {
		t.Fatalf("GetRoutine() error = %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].Weight != 100 {
		t.Errorf("GetRoutine() items = %+v", got.Items)
	}
	if err := repo.DeleteRoutine(ctx, routine.ID); err != nil {
		t.Fatalf("DeleteRoutine() error = %v", err)
	}
	if _, err := repo.GetRoutine(ctx, routine.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRoutine() after delete error = %v, want ErrNotFound", err)
	}
}

func TestProfileRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(openTestDB(t))

	if _, err := repo.Get(ctx, "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() before upsert error = %v, want ErrNotFound", err)
	}

	profile := models.DefaultProfile("user-1")
	profile.Age = intPtr(34)
	if _, err := repo.Upsert(ctx, profile); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	profile.WaterGoal = 3
	saved, err := repo.Upsert(ctx, profile)
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if saved.WaterGoal != 3 || saved.Age == nil || *saved.Age != 34 {
		t.Errorf("Upsert() = %+v", saved)
	}
}

func TestNotificationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewNotificationRepository(openTestDB(t))

	n, err := repo.Create(ctx, &models.Notification{
		UserID: "user-1",
		Kind:   models.NotificationStreakMilestone,
		Title:  "7 day streak",
		Body:   "You logged every day this week",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	unread, err := repo.ListByUser(ctx, "user-1", true)
	if err != nil || len(unread) != 1 {
		t.Fatalf("ListByUser(unread) = %d, %v; want 1", len(unread), err)
	}

	if err := repo.MarkRead(ctx, "user-2", n.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("MarkRead() by other user error = %v, want ErrNotFound", err)
	}
	if err := repo.MarkRead(ctx, "user-1", n.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	if unread, _ = repo.ListByUser(ctx, "user-1", true); len(unread) != 0 {
		t.Errorf("ListByUser(unread) after read = %d, want 0", len(unread))
	}
	all, _ := repo.ListByUser(ctx, "user-1", false)
	if len(all) != 1 || !all[0].Read {
		t.Errorf("ListByUser(all) = %+v", all)
	}
}
