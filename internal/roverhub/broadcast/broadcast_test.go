package broadcast

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/internal/roverhub/store"
)

type fakeObserver struct {
	id string

	mu       sync.Mutex
	capacity int
	got      []*Message
	closed   int
}

func newFakeObserver(id string, capacity int) *fakeObserver {
	return &fakeObserver{id: id, capacity: capacity}
}

func (o *fakeObserver) ID() string { return o.id }

func (o *fakeObserver) Deliver(msg *Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed > 0 || len(o.got) >= o.capacity {
		return false
	}
	o.got = append(o.got, msg)
	return true
}

func (o *fakeObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed++
}

func (o *fakeObserver) messages() []*Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*Message(nil), o.got...)
}

func decode(t *testing.T, msg *Message) (string, model.SystemState) {
	t.Helper()
	var env struct {
		Event string            `json:"event"`
		Data  model.SystemState `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return env.Event, env.Data
}

func newTestBroadcaster(mirrors ...Mirror) (*Broadcaster, *store.Memory) {
	st := store.NewMemory(model.NewSystemState(map[string]string{"jetson": "", "pi": ""}, 100))
	return NewBroadcaster(NewRegistry(), st, mirrors...), st
}

func move(t *testing.T, st *store.Memory, id string) model.Snapshot {
	t.Helper()
	snap, err := st.Mutate(func(s *model.SystemState) error {
		s.Rovers[id] = model.CommandForward.Apply(s.Rovers[id])
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestRegisterSendsCurrentState(t *testing.T) {
	b, st := newTestBroadcaster()
	move(t, st, "jetson")

	obs := newFakeObserver("late", 8)
	if !b.Register(obs) {
		t.Fatal("register failed")
	}

	got := obs.messages()
	if len(got) != 1 {
		t.Fatalf("got %d initial messages", len(got))
	}
	event, state := decode(t, got[0])
	if event != EventStatusUpdate || state.Rovers["jetson"].Lat != model.StepDegrees || got[0].Version != 1 {
		t.Fatalf("initial frame = %s %+v (v%d)", event, state, got[0].Version)
	}
}

func TestPublishReachesEveryObserverOnce(t *testing.T) {
	b, st := newTestBroadcaster()

	const n = 5
	observers := make([]*fakeObserver, n)
	for i := range observers {
		observers[i] = newFakeObserver(fmt.Sprintf("obs-%d", i), 8)
		b.Register(observers[i])
	}

	b.PublishState(move(t, st, "pi"))

	var first []byte
	for _, o := range observers {
		got := o.messages()
		if len(got) != 2 {
			t.Fatalf("%s got %d messages, want initial + update", o.id, len(got))
		}
		if first == nil {
			first = got[1].Payload
		}
		if !bytes.Equal(got[1].Payload, first) {
			t.Fatalf("%s got a different frame", o.id)
		}
	}
}

func TestStaleStateIsNotRedelivered(t *testing.T) {
	b, st := newTestBroadcaster()

	snap := move(t, st, "pi")
	obs := newFakeObserver("o", 8)
	b.Register(obs)

	// Committed before the registration, published after it.
	b.PublishState(snap)

	if got := obs.messages(); len(got) != 1 {
		t.Fatalf("observer received %d frames, want only the initial one", len(got))
	}

	b.PublishState(move(t, st, "pi"))
	if got := obs.messages(); len(got) != 2 || got[1].Version != 2 {
		t.Fatalf("newer state not delivered: %d frames", len(got))
	}
}

func TestSlowObserverIsEvicted(t *testing.T) {
	b, st := newTestBroadcaster()

	slow := newFakeObserver("slow", 1)
	fast := newFakeObserver("fast", 8)
	b.Register(slow)
	b.Register(fast)

	b.PublishState(move(t, st, "jetson"))

	if b.registry.Len() != 1 {
		t.Fatalf("registry holds %d observers", b.registry.Len())
	}
	if slow.closed != 1 {
		t.Fatal("evicted observer not closed")
	}
	if len(fast.messages()) != 2 {
		t.Fatal("eviction affected the other observer")
	}

	b.PublishAlert(&model.AlertRecord{ID: "a"})
	if len(slow.messages()) != 1 {
		t.Fatal("evicted observer still receives messages")
	}
}

func TestUnregisterIsIdempotent(t *testing.T) {
	b, _ := newTestBroadcaster()
	obs := newFakeObserver("o", 8)
	b.Register(obs)

	b.Unregister("o")
	b.Unregister("o")
	b.Unregister("never-registered")

	if b.registry.Len() != 0 {
		t.Fatalf("registry holds %d observers", b.registry.Len())
	}
	b.PublishAlert(&model.AlertRecord{ID: "a"})
	if len(obs.messages()) != 1 {
		t.Fatal("unregistered observer received an alert")
	}
}

type recordingMirror struct {
	states []uint64
	alerts []string
}

func (m *recordingMirror) MirrorState(snap model.Snapshot) { m.states = append(m.states, snap.Version) }
func (m *recordingMirror) MirrorAlert(alert *model.AlertRecord) {
	m.alerts = append(m.alerts, alert.ID)
}

func TestMirrorsReceiveCopies(t *testing.T) {
	mirror := &recordingMirror{}
	b, st := newTestBroadcaster(mirror)

	b.PublishState(move(t, st, "jetson"))
	b.PublishAlert(&model.AlertRecord{ID: "a-1"})

	if len(mirror.states) != 1 || mirror.states[0] != 1 || len(mirror.alerts) != 1 || mirror.alerts[0] != "a-1" {
		t.Fatalf("mirror saw states %v alerts %v", mirror.states, mirror.alerts)
	}
}

func TestConcurrentRegisterAndPublish(t *testing.T) {
	b, st := newTestBroadcaster()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Register(newFakeObserver(fmt.Sprintf("o-%d", i), 64))
		}()
		go func() {
			defer wg.Done()
			b.PublishState(st.Read())
		}()
	}
	wg.Wait()

	if b.registry.Len() != 20 {
		t.Fatalf("registry holds %d observers", b.registry.Len())
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []string{
		"bad frame",
		`Unknown event "self_destruct"`,
		"line one\nline two <tag> & \\",
		"",
	}

	for _, msg := range tests {
		var env struct {
			Event string            `json:"event"`
			Data  map[string]string `json:"data"`
		}
		m := ErrorMessage(msg)
		if err := json.Unmarshal(m.Payload, &env); err != nil {
			t.Fatalf("%q: %v (payload %s)", msg, err, m.Payload)
		}
		if m.Event != EventError || env.Event != EventError || env.Data["message"] != msg {
			t.Errorf("%q: frame = %+v", msg, env)
		}
	}
}
