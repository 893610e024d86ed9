package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/internal/roverhub/store"
)

var testTime = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

type published struct {
	event string
	snap  model.Snapshot
	alert *model.AlertRecord
}

type fakePublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *fakePublisher) PublishState(snap model.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: "status_update", snap: snap})
}

func (p *fakePublisher) PublishAlert(alert *model.AlertRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: "alert", alert: alert})
}

func (p *fakePublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type fakeResolver struct {
	calls      int
	transcript string
	audio      []byte
}

func (r *fakeResolver) Resolve(_ context.Context, transcript string, audio []byte) (string, core.TranscriptSource) {
	r.calls++
	r.transcript, r.audio = transcript, audio
	if model.UsableTranscript(transcript) {
		return transcript, core.SourceClient
	}
	return "Need water and food supplies", core.SourceFallback
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []model.RoverCommand
}

func (n *fakeNotifier) NotifyCommand(_ context.Context, _ string, cmd model.RoverCommand, _ model.Position) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, cmd)
}

type fakeArchive struct {
	mu   sync.Mutex
	keys []string
	data [][]byte
	err  error
}

func (a *fakeArchive) Archive(_ context.Context, key string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.keys = append(a.keys, key)
	a.data = append(a.data, data)
	return a.err
}

type fixture struct {
	svc      *Service
	store    *store.Memory
	pub      *fakePublisher
	resolver *fakeResolver
	notifier *fakeNotifier
	archive  *fakeArchive
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    store.NewMemory(model.NewSystemState(map[string]string{"jetson": "cam-j", "pi": "cam-p"}, 100)),
		pub:      &fakePublisher{},
		resolver: &fakeResolver{},
		notifier: &fakeNotifier{},
		archive:  &fakeArchive{},
	}
	ids := 0
	f.svc = New(f.store, f.pub, f.resolver,
		WithNotifier(f.notifier),
		WithArchive(f.archive),
		WithClock(testingclock.NewFakeClock(testTime)),
		WithIDGenerator(func() string {
			ids++
			return "alert-" + strconv.Itoa(ids)
		}),
	)
	return f
}

func ptr[T any](v T) *T { return &v }

func TestStartMission(t *testing.T) {
	f := newFixture(t)

	snap, err := f.svc.StartMission(context.Background(), model.MissionParams{
		Lat: ptr(34.0522), Lon: ptr(-118.2437), Payload: ptr("medkit"), Priority: ptr("high"),
	})
	if err != nil {
		t.Fatal(err)
	}

	st := snap.State
	if st.MissionState != model.MissionActive || *st.Payload != "medkit" || *st.Priority != "high" {
		t.Fatalf("unexpected state %+v", st)
	}
	if *st.Lat != 34.0522 || *st.Lon != -118.2437 {
		t.Fatalf("mission target not recorded: %v, %v", *st.Lat, *st.Lon)
	}
	if st.Battery != 100 {
		t.Errorf("battery changed to %d", st.Battery)
	}

	events := f.pub.all()
	if len(events) != 1 || events[0].event != "status_update" || events[0].snap.Version != snap.Version {
		t.Fatalf("published %+v", events)
	}
}

func TestStartMissionMissingFields(t *testing.T) {
	tests := []struct {
		name   string
		params model.MissionParams
	}{
		{"empty", model.MissionParams{}},
		{"no lat", model.MissionParams{Lon: ptr(1.0), Payload: ptr("x"), Priority: ptr("low")}},
		{"no lon", model.MissionParams{Lat: ptr(1.0), Payload: ptr("x"), Priority: ptr("low")}},
		{"no payload", model.MissionParams{Lat: ptr(1.0), Lon: ptr(1.0), Priority: ptr("low")}},
		{"no priority", model.MissionParams{Lat: ptr(1.0), Lon: ptr(1.0), Payload: ptr("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.store.Read()

			_, err := f.svc.StartMission(context.Background(), tt.params)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			after := f.store.Read()
			if after.Version != before.Version || after.State.MissionState != model.MissionIdle {
				t.Fatalf("rejected start changed the state: %+v", after)
			}
			if n := len(f.pub.all()); n != 0 {
				t.Fatalf("rejected start published %d messages", n)
			}
		})
	}
}

func TestMissionLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := model.MissionParams{Lat: ptr(1.0), Lon: ptr(2.0), Payload: ptr("water"), Priority: ptr("low")}

	if _, err := f.svc.CompleteMission(ctx); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("complete from idle: err = %v", err)
	}
	if _, err := f.svc.StartMission(ctx, params); err != nil {
		t.Fatal(err)
	}

	params.Payload = ptr("medkit")
	snap, err := f.svc.StartMission(ctx, params)
	if err != nil {
		t.Fatalf("restart of an active mission: %v", err)
	}
	if snap.State.MissionState != model.MissionActive || *snap.State.Payload != "medkit" {
		t.Fatalf("restart did not replace the parameters: %+v", snap.State)
	}

	snap, err = f.svc.CompleteMission(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if snap.State.MissionState != model.MissionCompleted {
		t.Fatalf("state = %s", snap.State.MissionState)
	}
	if _, err := f.svc.CompleteMission(ctx); !errors.Is(err, core.ErrInvalidTransition) {
		t.Fatalf("complete twice: err = %v", err)
	}

	snap, err = f.svc.StartMission(ctx, params)
	if err != nil || snap.State.MissionState != model.MissionActive {
		t.Fatalf("start after completion: %v %s", err, snap.State.MissionState)
	}
}

func TestControlRoverDirections(t *testing.T) {
	tests := []struct {
		cmd      model.RoverCommand
		lat, lon float64
	}{
		{model.CommandForward, model.StepDegrees, 0},
		{model.CommandBackward, -model.StepDegrees, 0},
		{model.CommandRight, 0, model.StepDegrees},
		{model.CommandLeft, 0, -model.StepDegrees},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			f := newFixture(t)

			res, err := f.svc.ControlRover(context.Background(), "jetson", tt.cmd)
			if err != nil {
				t.Fatal(err)
			}
			if res.NewPosition.Lat != tt.lat || res.NewPosition.Lon != tt.lon || !res.Moving {
				t.Fatalf("result = %+v", res)
			}

			rover := f.store.Read().State.Rovers["jetson"]
			if rover.Lat != tt.lat || rover.Lon != tt.lon || !rover.Moving {
				t.Fatalf("rover = %+v", rover)
			}
			if other := f.store.Read().State.Rovers["pi"]; other.Moving || other.Lat != 0 {
				t.Fatalf("other rover touched: %+v", other)
			}
		})
	}
}

func TestControlRoverAnnouncesMoveBeforeState(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.ControlRover(context.Background(), "jetson", model.CommandForward); err != nil {
		t.Fatal(err)
	}

	events := f.pub.all()
	if len(events) != 2 || events[0].event != "alert" || events[1].event != "status_update" {
		t.Fatalf("published %+v", events)
	}

	alert := events[0].alert
	if alert.Type != model.AlertInfo || alert.Message != "JETSON ROVER – MOVING FORWARD" {
		t.Errorf("alert = %+v", alert)
	}
	if alert.Source != "mission_control" || alert.Timestamp != "2026-10-15T09:30:00Z" {
		t.Errorf("alert source/timestamp = %q/%q", alert.Source, alert.Timestamp)
	}
	snapRover := events[1].snap.State.Rovers["jetson"]
	if c := alert.Location.Coordinates; c == nil || c.Lat != snapRover.Lat || c.Lon != snapRover.Lon {
		t.Errorf("alert and state disagree on the position: %+v vs %+v", alert.Location, snapRover)
	}

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	if len(f.notifier.sent) != 1 || f.notifier.sent[0] != model.CommandForward {
		t.Errorf("notifier got %v", f.notifier.sent)
	}
}

func TestControlRoverStop(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.ControlRover(ctx, "pi", model.CommandRight); err != nil {
		t.Fatal(err)
	}
	first, err := f.svc.ControlRover(ctx, "pi", model.CommandStop)
	if err != nil {
		t.Fatal(err)
	}
	afterFirst := f.store.Read().State.Rovers["pi"]

	second, err := f.svc.ControlRover(ctx, "pi", model.CommandStop)
	if err != nil {
		t.Fatal(err)
	}
	afterSecond := f.store.Read().State.Rovers["pi"]

	if first.Moving || afterFirst.Moving || afterFirst.Lon != model.StepDegrees {
		t.Fatalf("stop: %+v", afterFirst)
	}
	if afterFirst != afterSecond || first.NewPosition != second.NewPosition {
		t.Fatalf("second stop changed the rover: %+v -> %+v", afterFirst, afterSecond)
	}

	for _, ev := range f.pub.all()[2:] {
		if ev.event == "alert" {
			t.Fatalf("stop produced an alert: %+v", ev.alert)
		}
	}
}

func TestControlRoverRejects(t *testing.T) {
	tests := []struct {
		name    string
		rover   string
		cmd     model.RoverCommand
		wantErr error
	}{
		{"unknown rover", "curiosity", model.CommandForward, core.ErrInvalidRover},
		{"missing rover", "", model.CommandForward, core.ErrInvalidRover},
		{"unknown command", "jetson", "jump", core.ErrInvalidCommand},
		{"rover checked first", "curiosity", "jump", core.ErrInvalidRover},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			before := f.store.Read()

			if _, err := f.svc.ControlRover(context.Background(), tt.rover, tt.cmd); !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if after := f.store.Read(); after.Version != before.Version {
				t.Fatal("rejected command changed the state")
			}
			if len(f.pub.all()) != 0 || len(f.notifier.sent) != 0 {
				t.Fatal("rejected command was announced")
			}
		})
	}
}

func TestReportRoverStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.svc.ReportRoverStatus(ctx, "pi", model.RoverStatusOnline); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Read().State.Rovers["pi"].Status; got != model.RoverStatusOnline {
		t.Fatalf("status = %q", got)
	}
	if err := f.svc.ReportRoverStatus(ctx, "pi", model.RoverStatusOnline); err != nil {
		t.Fatal(err)
	}
	if n := len(f.pub.all()); n != 1 {
		t.Fatalf("unchanged status published again: %d messages", n)
	}

	if err := f.svc.ReportRoverStatus(ctx, "ghost", "online"); !errors.Is(err, core.ErrInvalidRover) {
		t.Errorf("unknown rover: err = %v", err)
	}
	if err := f.svc.ReportRoverStatus(ctx, "pi", ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty status: err = %v", err)
	}
}

func TestConcurrentCommandsPublishInCommitOrder(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.svc.ControlRover(context.Background(), "jetson", model.CommandForward)
		}()
		go func() {
			defer wg.Done()
			_, _ = f.svc.ControlRover(context.Background(), "pi", model.CommandLeft)
		}()
	}
	wg.Wait()

	var last uint64
	for _, ev := range f.pub.all() {
		if ev.event != "status_update" {
			continue
		}
		if ev.snap.Version <= last {
			t.Fatalf("version %d published after %d", ev.snap.Version, last)
		}
		last = ev.snap.Version
	}
	if last != 100 {
		t.Fatalf("last version = %d, want 100", last)
	}
}
