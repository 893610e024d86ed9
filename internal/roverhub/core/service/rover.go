package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const sourceMissionControl = "mission_control"

// ControlRover applies one motion command. The rover id is checked before
// the command. A moving command is announced with an INFO alert ahead of the
// state update.
func (s *Service) ControlRover(ctx context.Context, roverID string, cmd model.RoverCommand) (*model.ControlResult, error) {
	var result model.ControlResult

	_, err := s.commit(func(st *model.SystemState) error {
		rover, ok := st.Rovers[roverID]
		if !ok {
			return fmt.Errorf("%w: %q", core.ErrInvalidRover, roverID)
		}
		if !cmd.Valid() {
			return fmt.Errorf("%w: %q", core.ErrInvalidCommand, cmd)
		}

		rover = cmd.Apply(rover)
		st.Rovers[roverID] = rover
		result = model.ControlResult{
			RoverID:     roverID,
			Command:     cmd,
			NewPosition: rover.Position(),
			Moving:      rover.Moving,
		}
		return nil
	}, func(snap model.Snapshot) {
		if result.Moving {
			s.publisher.PublishAlert(s.movingAlert(result))
		}
		s.publisher.PublishState(snap)
	})

	metrics.CommandsTotal.WithLabelValues("rover_control", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("Rover command rejected", "rover", roverID, "command", string(cmd), "error", err.Error())
		return nil, err
	}

	s.log.Debug("Rover command applied", "rover", roverID, "command", string(cmd),
		"lat", result.NewPosition.Lat, "lon", result.NewPosition.Lon)

	if s.notifier != nil {
		s.notifier.NotifyCommand(ctx, roverID, cmd, result.NewPosition)
	}
	return &result, nil
}

// errUnchanged aborts a mutation that would not change anything.
var errUnchanged = errors.New("unchanged")

// ReportRoverStatus records a status label reported by the rover itself.
// An unchanged status is not announced.
func (s *Service) ReportRoverStatus(_ context.Context, roverID, status string) error {
	var previous string

	_, err := s.commit(func(st *model.SystemState) error {
		r, ok := st.Rovers[roverID]
		if !ok {
			return fmt.Errorf("%w: %q", core.ErrInvalidRover, roverID)
		}
		if status == "" {
			return fmt.Errorf("%w: empty status for rover %q", core.ErrValidation, roverID)
		}
		if r.Status == status {
			return errUnchanged
		}
		previous = r.Status
		r.Status = status
		st.Rovers[roverID] = r
		return nil
	}, s.publisher.PublishState)

	if errors.Is(err, errUnchanged) {
		return nil
	}
	metrics.CommandsTotal.WithLabelValues("rover_status", metrics.Result(err)).Inc()
	if err != nil {
		return err
	}

	s.log.Info("Rover status changed", "rover", roverID, "from", previous, "to", status)
	return nil
}

func (s *Service) movingAlert(r model.ControlResult) *model.AlertRecord {
	return &model.AlertRecord{
		ID:        s.newID(),
		Type:      model.AlertInfo,
		Level:     model.LevelInfo,
		Message:   fmt.Sprintf("%s ROVER – MOVING %s", strings.ToUpper(r.RoverID), strings.ToUpper(string(r.Command))),
		Timestamp: s.now(),
		Source:    sourceMissionControl,
		Location:  model.CoordinateLocation(r.NewPosition.Lat, r.NewPosition.Lon),
	}
}
