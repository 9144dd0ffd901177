package tui

import (
	"strings"
	"testing"
	"time"
)

func TestToast_ShowDisplaysMessage(t *testing.T) {
	toast := NewToast()

	cmd := toast.Show("test message")

	if !toast.IsVisible() {
		t.Error("expected toast to be visible after Show()")
	}
	if toast.GetMessage() != "test message" {
		t.Errorf("expected message 'test message', got %q", toast.GetMessage())
	}
	if cmd == nil {
		t.Error("expected Show() to return a command for dismissal")
	}
}

func TestToast_RenderEmptyWhenNotVisible(t *testing.T) {
	toast := NewToast()

	if view := toast.Render(80); view != "" {
		t.Errorf("expected empty view when not visible, got %q", view)
	}
}

func TestToast_RenderContainsMessage(t *testing.T) {
	toast := NewToast()
	toast.Show("Resize not saved")

	view := toast.Render(80)
	if !strings.Contains(view, "Resize not saved") {
		t.Errorf("expected view to contain message, got %q", view)
	}
}

func TestToast_DismissMsgHidesToast(t *testing.T) {
	toast := NewToast()
	toast.Show("test message")
	toast.dismissAt = time.Now().Add(-time.Second)

	if cmd := toast.Update(ToastDismissMsg{}); cmd != nil {
		t.Error("expected no follow-up command once the toast expired")
	}
	if toast.IsVisible() {
		t.Error("expected toast to be hidden after dismiss")
	}
	if toast.GetMessage() != "" {
		t.Errorf("expected empty message after dismiss, got %q", toast.GetMessage())
	}
}

func TestToast_NewerToastOutlivesOldTick(t *testing.T) {
	toast := NewToast()
	toast.Show("first")
	toast.Show("second")

	// The tick scheduled for "first" fires while "second" is still due.
	if cmd := toast.Update(ToastDismissMsg{}); cmd == nil {
		t.Error("expected a new dismiss tick for the newer toast")
	}
	if toast.GetMessage() != "second" {
		t.Errorf("expected newer toast to stay visible, got %q", toast.GetMessage())
	}
}
