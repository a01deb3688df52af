package web

import (
	"testing"

	"gitok/internal/scheduler"
	"gitok/internal/status"
)

func TestHub_SignalsCoalesce(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	h.StateChanged(scheduler.State{})
	h.StateChanged(scheduler.State{})

	select {
	case <-ch:
	default:
		t.Fatal("expected a pending signal")
	}
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestHub_ScanSubscriberKeepsNewest(t *testing.T) {
	h := NewHub()
	ch := h.SubscribeScans()

	h.Notify(status.ScanResult{Root: "/one"}, scheduler.State{})
	h.Notify(status.ScanResult{Root: "/two"}, scheduler.State{})

	got := <-ch
	if got.Root != "/two" {
		t.Errorf("got %q, want the newest scan", got.Root)
	}
	select {
	case r := <-ch:
		t.Errorf("unexpected extra scan %q", r.Root)
	default:
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe()
	scans := h.SubscribeScans()

	h.Unsubscribe(sig)
	h.UnsubscribeScans(scans)
	h.Unsubscribe(sig) // second call is a no-op

	if _, ok := <-sig; ok {
		t.Error("signal channel should be closed")
	}
	if _, ok := <-scans; ok {
		t.Error("scan channel should be closed")
	}

	// Publishing with no subscribers must not panic.
	h.Notify(status.ScanResult{}, scheduler.State{})
}

func TestHub_Close(t *testing.T) {
	h := NewHub()
	sig := h.Subscribe()
	scans := h.SubscribeScans()

	h.Close()
	h.Close()

	if _, ok := <-sig; ok {
		t.Error("signal channel should be closed")
	}
	if _, ok := <-scans; ok {
		t.Error("scan channel should be closed")
	}

	if _, ok := <-h.Subscribe(); ok {
		t.Error("subscribing after Close should return a closed channel")
	}
	if _, ok := <-h.SubscribeScans(); ok {
		t.Error("subscribing after Close should return a closed channel")
	}
	h.Notify(status.ScanResult{}, scheduler.State{})
}

func TestHub_ImplementsNotifier(t *testing.T) {
	var _ scheduler.Notifier = NewHub()
}
