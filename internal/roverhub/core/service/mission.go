package service

import (
	"context"

	"github.com/autopeer-io/roverhub/internal/pkg/metrics"
	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

// StartMission records the mission parameters and moves the mission to
// active. Starting an active mission replaces its parameters.
func (s *Service) StartMission(ctx context.Context, params model.MissionParams) (model.Snapshot, error) {
	snap, err := s.commit(func(st *model.SystemState) error {
		next, err := newMissionMachine(st.MissionState).fire(ctx, EventStart, params)
		if err != nil {
			return err
		}
		st.MissionState = next
		st.Lat, st.Lon = params.Lat, params.Lon
		st.Payload, st.Priority = params.Payload, params.Priority
		return nil
	}, s.publisher.PublishState)

	metrics.CommandsTotal.WithLabelValues("mission_start", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("Mission start rejected", "error", err.Error())
		return snap, err
	}

	s.log.Info("Mission started", "payload", *params.Payload, "priority", *params.Priority,
		"lat", *params.Lat, "lon", *params.Lon, "version", snap.Version)
	return snap, nil
}

// CompleteMission closes the active mission.
func (s *Service) CompleteMission(ctx context.Context) (model.Snapshot, error) {
	snap, err := s.commit(func(st *model.SystemState) error {
		next, err := newMissionMachine(st.MissionState).fire(ctx, EventComplete)
		if err != nil {
			return err
		}
		st.MissionState = next
		return nil
	}, s.publisher.PublishState)

	metrics.CommandsTotal.WithLabelValues("mission_complete", metrics.Result(err)).Inc()
	if err != nil {
		s.log.Warn("Mission completion rejected", "error", err.Error())
		return snap, err
	}

	s.log.Info("Mission completed", "version", snap.Version)
	return snap, nil
}
