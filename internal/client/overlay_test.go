package client

import (
	"errors"
	"testing"
	"time"

	"github.com/JonnyWalker81/healthlog/backend/internal/models"
)

func TestOverlay_ConfirmReplacesSpeculativeRecord(t *testing.T) {
	o := NewOverlay()
	speculative := models.LogEntry{ID: "a", Date: now, LogFields: models.LogFields{Mood: intPtr(3)}}
	o.Apply("c1", OpCreate, "a", speculative)

	confirmed := speculative
	confirmed.UserID = "user-1"
	confirmed.Mood = intPtr(4)
	o.Confirm("c1", &confirmed)

	view := o.View()
	if len(view) != 1 {
		t.Fatalf("view = %+v, want exactly one entry", view)
	}
	if *view[0].Mood != 4 || view[0].UserID != "user-1" {
		t.Errorf("entry = %+v, want confirmed state", view[0])
	}

	// a late duplicate confirmation is ignored
	o.Confirm("c1", &models.LogEntry{ID: "other"})
	if len(o.View()) != 1 {
		t.Error("duplicate confirmation added an entry")
	}
}

func TestOverlay_PatchAndDelete(t *testing.T) {
	o := NewOverlay()
	o.Reset([]models.LogEntry{
		{ID: "a", Date: now.Add(-2 * time.Hour), LogFields: models.LogFields{Mood: intPtr(1)}},
		{ID: "b", Date: now.Add(-time.Hour)},
	})

	o.Apply("p", OpPatch, "a", models.LogEntry{ID: "a", Date: now.Add(-2 * time.Hour), LogFields: models.LogFields{Mood: intPtr(5)}})
	o.Apply("d", OpDelete, "b", models.LogEntry{})
	// a patch of an entry that is not visible does not resurrect it
	o.Apply("p2", OpPatch, "zzz", models.LogEntry{ID: "zzz"})

	view := o.View()
	if len(view) != 1 || view[0].ID != "a" || *view[0].Mood != 5 {
		t.Fatalf("view = %+v, want patched a only", view)
	}

	cause := errors.New("boom")
	if err := o.Fail("p", cause); !errors.Is(err, cause) {
		t.Errorf("Fail() = %v, want wrapped cause", err)
	}
	if err := o.Fail("p", cause); err != nil {
		t.Errorf("second Fail() = %v, want nil", err)
	}
	if view := o.View(); *view[0].Mood != 1 {
		t.Errorf("failed patch left mood %d, want 1", *view[0].Mood)
	}

	o.Confirm("d", nil)
	o.Reset(o.View())
	if len(o.View()) != 1 || o.Pending() != 1 {
		t.Errorf("after confirmed delete view = %+v pending = %d", o.View(), o.Pending())
	}
}
