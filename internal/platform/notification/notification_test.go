package notification

import (
	"context"
	"testing"
)

func TestCenter_NotifyAndList(t *testing.T) {
	c := NewCenter()
	ctx := context.Background()

	c.Notify(ctx, "nurse-1", SeverityWarning, "slot was taken, pick another time")
	c.Notify(ctx, "nurse-1", SeverityInfo, "patient registered")
	c.Notify(ctx, "doctor-2", SeverityError, "payment required")

	notices := c.List("nurse-1", false)
	if len(notices) != 2 {
		t.Fatalf("got %d notices, want 2", len(notices))
	}
	for _, n := range notices {
		if n.Recipient != "nurse-1" {
			t.Errorf("leaked notice for %q", n.Recipient)
		}
	}

	if got := c.List("doctor-2", false); len(got) != 1 || got[0].Severity != SeverityError {
		t.Errorf("doctor-2 notices = %+v", got)
	}
}

func TestCenter_MarkRead(t *testing.T) {
	c := NewCenter()
	c.Notify(context.Background(), "nurse-1", SeverityInfo, "hello")

	all := c.List("nurse-1", false)
	if len(all) != 1 {
		t.Fatalf("got %d notices", len(all))
	}

	if !c.MarkRead("nurse-1", all[0].ID) {
		t.Fatal("MarkRead returned false for known notice")
	}
	if unread := c.List("nurse-1", true); len(unread) != 0 {
		t.Errorf("unread list has %d entries after MarkRead", len(unread))
	}
	if c.MarkRead("nurse-1", "missing") {
		t.Error("MarkRead returned true for unknown notice")
	}
}

func TestCenter_ListIsolatesCopies(t *testing.T) {
	c := NewCenter()
	c.Notify(context.Background(), "nurse-1", SeverityInfo, "hello")

	got := c.List("nurse-1", false)
	got[0].Read = true

	if again := c.List("nurse-1", true); len(again) != 1 {
		t.Error("mutating a listed notice affected the store")
	}
}
