package fsm

import (
	"context"
	"errors"
	"testing"

	"github.com/looplab/fsm"
)

func newDoor(guard func(context.Context, *fsm.Event) error) *fsm.FSM {
	return fsm.NewFSM("closed",
		fsm.Events{
			{Name: "open", Src: []string{"closed", "open"}, Dst: "open"},
			{Name: "close", Src: []string{"open"}, Dst: "closed"},
		},
		fsm.Callbacks{"before_open": WrapEvent(guard)},
	)
}

func TestSettle(t *testing.T) {
	locked := errors.New("locked")
	allow := func(context.Context, *fsm.Event) error { return nil }
	deny := func(context.Context, *fsm.Event) error { return locked }

	t.Run("transition", func(t *testing.T) {
		f := newDoor(allow)
		if err := Settle(f.Event(context.Background(), "open")); err != nil {
			t.Fatal(err)
		}
		if f.Current() != "open" {
			t.Fatalf("state = %s", f.Current())
		}
	})

	t.Run("self transition is not an error", func(t *testing.T) {
		f := newDoor(allow)
		_ = f.Event(context.Background(), "open")
		if err := Settle(f.Event(context.Background(), "open")); err != nil {
			t.Fatalf("got %v", err)
		}
	})

	t.Run("guard error surfaces", func(t *testing.T) {
		f := newDoor(deny)
		err := Settle(f.Event(context.Background(), "open"))
		if !errors.Is(err, locked) {
			t.Fatalf("got %v, want %v", err, locked)
		}
		if f.Current() != "closed" {
			t.Fatalf("canceled transition moved to %s", f.Current())
		}
	})

	t.Run("invalid event kept", func(t *testing.T) {
		f := newDoor(allow)
		err := Settle(f.Event(context.Background(), "close"))
		var invalid fsm.InvalidEventError
		if !errors.As(err, &invalid) {
			t.Fatalf("got %T %v", err, err)
		}
	})
}
