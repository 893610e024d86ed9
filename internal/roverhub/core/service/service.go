package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
	"github.com/autopeer-io/roverhub/pkg/log"
)

// Service implements the hub use cases: mission control, rover control and
// distress handling. Every state change flows through the StateStore and is
// announced through the Publisher.
type Service struct {
	store     core.StateStore
	publisher core.Publisher
	resolver  core.TranscriptResolver

	notifier core.RoverNotifier
	archive  core.AudioArchive

	clock clock.PassiveClock
	newID func() string
	log   log.Logger

	// seq keeps publishes in commit order.
	seq sync.Mutex

	archiving sync.WaitGroup
}

type Option func(*Service)

// WithNotifier forwards accepted rover commands to the rovers.
func WithNotifier(n core.RoverNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithArchive stores decoded distress audio.
func WithArchive(a core.AudioArchive) Option {
	return func(s *Service) { s.archive = a }
}

func WithClock(c clock.PassiveClock) Option {
	return func(s *Service) { s.clock = c }
}

// WithIDGenerator replaces the alert id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// New creates the hub service. The notifier and archive are optional.
func New(store core.StateStore, publisher core.Publisher, resolver core.TranscriptResolver, opts ...Option) *Service {
	s := &Service{
		store:     store,
		publisher: publisher,
		resolver:  resolver,
		clock:     clock.RealClock{},
		newID:     uuid.NewString,
		log:       log.WithName("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns the current state.
func (s *Service) Snapshot() model.Snapshot {
	return s.store.Read()
}

// commit applies fn and, on success, hands the new snapshot to announce while
// still holding the sequencer. announce must not block.
func (s *Service) commit(fn func(*model.SystemState) error, announce func(model.Snapshot)) (model.Snapshot, error) {
	s.seq.Lock()
	defer s.seq.Unlock()

	snap, err := s.store.Mutate(fn)
	if err != nil {
		return snap, err
	}
	announce(snap)
	return snap, nil
}

// Wait blocks until background audio uploads have finished.
func (s *Service) Wait() {
	s.archiving.Wait()
}

func (s *Service) now() string {
	return s.clock.Now().UTC().Format(time.RFC3339)
}
