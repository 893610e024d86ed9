package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/looplab/fsm"

	fsmutil "github.com/autopeer-io/roverhub/internal/pkg/util/fsm"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const (
	// EventStart (re)starts a mission. Allowed from every state.
	EventStart = "start"
	// EventComplete closes an active mission.
	EventComplete = "complete"
)

var missionEvents = fsm.Events{
	{
		Name: EventStart,
		Src:  []string{string(model.MissionIdle), string(model.MissionActive), string(model.MissionCompleted)},
		Dst:  string(model.MissionActive),
	},
	{
		Name: EventComplete,
		Src:  []string{string(model.MissionActive)},
		Dst:  string(model.MissionCompleted),
	},
}

// missionMachine is built per mutation from the stored mission state; the
// store stays the single source of truth.
type missionMachine struct {
	*fsm.FSM
}

func newMissionMachine(current model.MissionState) *missionMachine {
	m := &missionMachine{}
	m.FSM = fsm.NewFSM(string(current), missionEvents, fsm.Callbacks{
		"before_" + EventStart: fsmutil.WrapEvent(m.guardStart),
	})
	return m
}

// guardStart rejects a start without complete mission parameters.
func (m *missionMachine) guardStart(_ context.Context, e *fsm.Event) error {
	if len(e.Args) == 0 {
		return fmt.Errorf("%w: missing mission parameters", core.ErrValidation)
	}
	params, ok := e.Args[0].(model.MissionParams)
	if !ok {
		return fmt.Errorf("%w: unexpected mission parameters %T", core.ErrValidation, e.Args[0])
	}
	if missing := params.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing fields %s", core.ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// fire runs event and returns the resulting mission state.
func (m *missionMachine) fire(ctx context.Context, event string, args ...any) (model.MissionState, error) {
	err := fsmutil.Settle(m.Event(ctx, event, args...))
	if err != nil {
		var invalid fsm.InvalidEventError
		if errors.As(err, &invalid) {
			return "", fmt.Errorf("%w: cannot %s a mission that is %s", core.ErrInvalidTransition, invalid.Event, invalid.State)
		}
		return "", err
	}
	return model.MissionState(m.Current()), nil
}
