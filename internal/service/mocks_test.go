package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/google/uuid"
)

// mockLogRepository is an in-memory LogRepository. It stores deep copies so
// tests observe exactly what the service persisted.
type mockLogRepository struct {
	entries     map[string]*models.LogEntry
	createCalls int
	seq         int
}

func newMockLogRepository() *mockLogRepository {
	return &mockLogRepository{entries: make(map[string]*models.LogEntry)}
}

func copyEntry(e *models.LogEntry) *models.LogEntry {
	out := *e
	out.LogFields = e.LogFields.Clone()
	return &out
}

func (m *mockLogRepository) Create(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	m.createCalls++
	m.seq++
	stored := copyEntry(entry)
	if stored.ID == "" {
		stored.ID = uuid.Must(uuid.NewV7()).String()
	}
	if _, exists := m.entries[stored.ID]; exists {
		return nil, fmt.Errorf("duplicate id %s", stored.ID)
	}
	stored.Date = models.NormalizeDate(stored.Date)
	// seq keeps creation order stable within one clock tick
	stored.CreatedAt = time.Now().UTC().Add(time.Duration(m.seq) * time.Microsecond)
	stored.UpdatedAt = stored.CreatedAt
	m.entries[stored.ID] = stored
	return copyEntry(stored), nil
}

func (m *mockLogRepository) GetByID(ctx context.Context, id string) (*models.LogEntry, error) {
	if e, ok := m.entries[id]; ok {
		return copyEntry(e), nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockLogRepository) GetByUserAndDate(ctx context.Context, userID string, date time.Time) (*models.LogEntry, error) {
	var match *models.LogEntry
	key := models.FormatDate(date)
	for _, e := range m.entries {
		if e.UserID != userID || e.DateKey() != key {
			continue
		}
		if match == nil || e.CreatedAt.Before(match.CreatedAt) {
			match = e
		}
	}
	if match == nil {
		return nil, repository.ErrNotFound
	}
	return copyEntry(match), nil
}

func (m *mockLogRepository) ListByRange(ctx context.Context, userID string, from, to time.Time) ([]models.LogEntry, error) {
	result := []models.LogEntry{}
	for _, e := range m.entries {
		if e.UserID == userID && !e.Date.Before(from) && !e.Date.After(to) {
			result = append(result, *copyEntry(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

func (m *mockLogRepository) ListAll(ctx context.Context, userID string) ([]models.LogEntry, error) {
	result := []models.LogEntry{}
	for _, e := range m.entries {
		if e.UserID == userID {
			result = append(result, *copyEntry(e))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *mockLogRepository) Update(ctx context.Context, entry *models.LogEntry) (*models.LogEntry, error) {
	existing, ok := m.entries[entry.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	existing.Date = models.NormalizeDate(entry.Date)
	existing.LogFields = entry.LogFields.Clone()
	existing.UpdatedAt = time.Now().UTC()
	return copyEntry(existing), nil
}

func (m *mockLogRepository) Delete(ctx context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *mockLogRepository) countByUser(userID string) int {
	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n
}

// mockHistoryRepository keeps the ledger in insertion order
type mockHistoryRepository struct {
	entries []models.HistoryEntry
	nextID  int64
}

func newMockHistoryRepository() *mockHistoryRepository {
	return &mockHistoryRepository{}
}

func (m *mockHistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry, keep int) (*models.HistoryEntry, error) {
	m.nextID++
	stored := *entry
	stored.ID = m.nextID
	stored.Snapshot = *copyEntry(&entry.Snapshot)
	m.entries = append(m.entries, stored)

	var mine []int64
	for _, e := range m.entries {
		if e.UserID == entry.UserID {
			mine = append(mine, e.ID)
		}
	}
	if excess := len(mine) - keep; excess > 0 {
		evict := make(map[int64]bool, excess)
		for _, id := range mine[:excess] {
			evict[id] = true
		}
		kept := m.entries[:0]
		for _, e := range m.entries {
			if !evict[e.ID] {
				kept = append(kept, e)
			}
		}
		m.entries = kept
	}
	return &stored, nil
}

func (m *mockHistoryRepository) Latest(ctx context.Context, userID string) (*models.HistoryEntry, error) {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			e := m.entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

func (m *mockHistoryRepository) Delete(ctx context.Context, id int64) error {
	for i, e := range m.entries {
		if e.ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockHistoryRepository) Count(ctx context.Context, userID string) (int, error) {
	n := 0
	for _, e := range m.entries {
		if e.UserID == userID {
			n++
		}
	}
	return n, nil
}

type mockChangeLogRepository struct {
	entries   []models.ChangeEntry
	appendErr error
}

func (m *mockChangeLogRepository) Append(ctx context.Context, input *models.ChangeLogInput) (*models.ChangeEntry, error) {
	if m.appendErr != nil {
		return nil, m.appendErr
	}
	entry := models.ChangeEntry{
		ID:         int64(len(m.entries) + 1),
		EntityType: input.EntityType,
		Operation:  input.Operation,
		EntityID:   input.EntityID,
		UserID:     input.UserID,
		DeletedAt:  input.DeletedAt,
		CreatedAt:  time.Now().UTC(),
	}
	if input.Data != nil {
		data, err := json.Marshal(input.Data)
		if err != nil {
			return nil, err
		}
		entry.Data = data
	}
	m.entries = append(m.entries, entry)
	return &entry, nil
}

func (m *mockChangeLogRepository) GetSince(ctx context.Context, userID string, cursor int64, limit int) (*models.ChangeFeedResponse, error) {
	resp := &models.ChangeFeedResponse{Changes: []models.ChangeEntry{}, NextCursor: cursor}
	for _, e := range m.entries {
		if e.UserID == userID && e.ID > cursor {
			resp.Changes = append(resp.Changes, e)
			resp.NextCursor = e.ID
		}
	}
	return resp, nil
}

func (m *mockChangeLogRepository) GetLatestCursor(ctx context.Context, userID string) (int64, error) {
	var latest int64
	for _, e := range m.entries {
		if e.UserID == userID {
			latest = e.ID
		}
	}
	return latest, nil
}

type mockFoodItemRepository struct {
	usage map[string]int
}

func newMockFoodItemRepository() *mockFoodItemRepository {
	return &mockFoodItemRepository{usage: make(map[string]int)}
}

func (m *mockFoodItemRepository) RecordUsage(ctx context.Context, userID, name string, usedAt time.Time) error {
	m.usage[userID+"/"+name]++
	return nil
}

func (m *mockFoodItemRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.FoodItem, error) {
	items := []models.FoodItem{}
	for key, count := range m.usage {
		if name, ok := strings.CutPrefix(key, userID+"/"); ok {
			items = append(items, models.FoodItem{UserID: userID, Name: name, UsageCount: count})
		}
	}
	return items, nil
}

type mockNotificationRepository struct {
	notifications []models.Notification
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	stored := *n
	stored.ID = uuid.NewString()
	stored.CreatedAt = time.Now().UTC()
	m.notifications = append(m.notifications, stored)
	return &stored, nil
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	out := []models.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.Read) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			m.notifications[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *mockNotificationRepository) byKind(kind models.NotificationKind) []models.Notification {
	var out []models.Notification
	for _, n := range m.notifications {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

type mockProfileRepository struct {
	profiles map[string]*models.UserProfile
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[string]*models.UserProfile)}
}

func (m *mockProfileRepository) Get(ctx context.Context, userID string) (*models.UserProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		out := *p
		return &out, nil
	}
	return nil, repository.ErrNotFound
}

func (m *mockProfileRepository) Upsert(ctx context.Context, profile *models.UserProfile) (*models.UserProfile, error) {
	stored := *profile
	m.profiles[profile.UserID] = &stored
	out := stored
	return &out, nil
}

// mockTransactor runs fn directly; the mocks have no rollback. commitErr
// is returned by the outermost call after fn succeeds.
type mockTransactor struct {
	calls     int
	depth     int
	commitErr error
}

func (m *mockTransactor) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	m.depth++
	err := fn(ctx)
	m.depth--
	if err == nil && m.depth == 0 {
		return m.commitErr
	}
	return err
}

type mockPublisher struct {
	mu      sync.Mutex
	changes []models.ChangeEntry
}

func (m *mockPublisher) Publish(userID string, change *models.ChangeEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, *change)
}

type mockBlobStore struct {
	objects map[string][]byte
	err     error
}

func (m *mockBlobStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = body
	return nil
}

// fakeClock is a settable time source
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// testServices bundles services sharing one set of mocks
type testServices struct {
	logs          *mockLogRepository
	history       *mockHistoryRepository
	changeLog     *mockChangeLogRepository
	foodItems     *mockFoodItemRepository
	notifications *mockNotificationRepository
	profiles      *mockProfileRepository
	publisher     *mockPublisher
	clock         *fakeClock
	tx            *mockTransactor

	logSvc     LogService
	historySvc HistoryService
}

func newTestServices() *testServices {
	ts := &testServices{
		logs:          newMockLogRepository(),
		history:       newMockHistoryRepository(),
		changeLog:     &mockChangeLogRepository{},
		foodItems:     newMockFoodItemRepository(),
		notifications: &mockNotificationRepository{},
		profiles:      newMockProfileRepository(),
		publisher:     &mockPublisher{},
		clock:         &fakeClock{now: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
	}
	tx := &mockTransactor{}
	ts.tx = tx
	ts.logSvc = NewLogService(ts.logs, ts.foodItems, ts.changeLog, ts.notifications, tx, ts.publisher)
	ts.logSvc.(*logService).now = ts.clock.Now
	ts.historySvc = NewHistoryService(ts.logs, ts.history, ts.changeLog, tx, ts.publisher, ts.clock.Now)
	return ts
}

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func strPtr(v string) *string     { return &v }

func timePtr(t time.Time) *time.Time { return &t }
