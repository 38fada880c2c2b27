package selection

import (
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/bubbletime/internal/domain"
)

type fakeLinker struct {
	calls [][2]string
	err   error
}

func (f *fakeLinker) Create(_ context.Context, aID, bID string) (*domain.Link, error) {
	f.calls = append(f.calls, [2]string{aID, bID})
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Link{ID: "l1", BubbleAID: aID, BubbleBID: bID}, nil
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name        string
		linkErr     error
		clicks      []string
		wantOutcome Outcome
		wantErr     error
		wantPending string
		wantCalls   int
	}{
		{name: "first click", clicks: []string{"a"}, wantOutcome: Selected, wantPending: "a"},
		{name: "toggle off", clicks: []string{"a", "a"}, wantOutcome: Deselected},
		{name: "link", clicks: []string{"a", "b"}, wantOutcome: Linked, wantCalls: 1},
		{name: "after link starts over", clicks: []string{"a", "b", "c"}, wantOutcome: Selected, wantPending: "c", wantCalls: 1},
		{name: "duplicate resets softly", linkErr: domain.ErrDuplicateLink, clicks: []string{"a", "b"}, wantOutcome: AlreadyLinked, wantCalls: 1},
		{name: "unknown bubble propagates", linkErr: &domain.UnknownBubbleError{ID: "b"}, clicks: []string{"a", "b"}, wantOutcome: Failed, wantErr: domain.ErrUnknownBubble, wantCalls: 1},
		{name: "self link never reaches linker", clicks: []string{"a", "a", "a"}, wantOutcome: Selected, wantPending: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			linker := &fakeLinker{err: tt.linkErr}
			m := New(linker)

			var (
				res Result
				err error
			)
			for _, id := range tt.clicks {
				res, err = m.Select(context.Background(), id)
			}

			if res.Outcome != tt.wantOutcome {
				t.Errorf("Outcome = %v, want %v", res.Outcome, tt.wantOutcome)
			}
			if tt.wantErr == nil && err != nil {
				t.Errorf("Select() error = %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Select() error = %v, want %v", err, tt.wantErr)
			}
			pending, ok := m.Pending()
			if pending != tt.wantPending || ok != (tt.wantPending != "") {
				t.Errorf("Pending() = %q, %v, want %q", pending, ok, tt.wantPending)
			}
			if res.Pending != tt.wantPending {
				t.Errorf("Result.Pending = %q, want %q", res.Pending, tt.wantPending)
			}
			if len(linker.calls) != tt.wantCalls {
				t.Errorf("linker called %d times, want %d", len(linker.calls), tt.wantCalls)
			}
		})
	}
}

func TestSelectLinkOrder(t *testing.T) {
	linker := &fakeLinker{}
	m := New(linker)

	_, _ = m.Select(context.Background(), "first")
	res, err := m.Select(context.Background(), "second")
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if res.Link == nil || res.Link.BubbleAID != "first" || res.Link.BubbleBID != "second" {
		t.Errorf("Link = %+v, want first -> second", res.Link)
	}
}

func TestClearIf(t *testing.T) {
	m := New(&fakeLinker{})

	if m.ClearIf("a") {
		t.Error("ClearIf() on Empty should report false")
	}

	_, _ = m.Select(context.Background(), "a")
	if m.ClearIf("b") {
		t.Error("ClearIf(other) should not clear")
	}
	if _, ok := m.Pending(); !ok {
		t.Fatal("selection lost after ClearIf(other)")
	}
	if !m.ClearIf("a") {
		t.Error("ClearIf(pending) should clear")
	}
	if _, ok := m.Pending(); ok {
		t.Error("selection still pending after ClearIf")
	}

	_, _ = m.Select(context.Background(), "c")
	m.Clear()
	if _, ok := m.Pending(); ok {
		t.Error("selection still pending after Clear")
	}
}

func TestOutcomeText(t *testing.T) {
	for o, want := range map[Outcome]string{
		Rejected:      "rejected",
		Selected:      "selected",
		Deselected:    "deselected",
		Linked:        "linked",
		AlreadyLinked: "already_linked",
		Failed:        "failed",
		Outcome(42):   "unknown",
	} {
		b, _ := o.MarshalText()
		if string(b) != want {
			t.Errorf("MarshalText(%d) = %q, want %q", int(o), b, want)
		}
	}

	var zero Result
	if zero.Outcome != Rejected {
		t.Errorf("zero Result outcome = %v, want rejected", zero.Outcome)
	}
}
