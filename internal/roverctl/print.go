package roverctl

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/gosuri/uitable"

	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const maxColWidth = 60

func printState(w io.Writer, s *model.SystemState) error {
	mission := uitable.New()
	mission.MaxColWidth = maxColWidth
	mission.AddRow("MISSION:", string(s.MissionState))
	mission.AddRow("PAYLOAD:", valueOrDash(s.Payload))
	mission.AddRow("PRIORITY:", valueOrDash(s.Priority))
	if s.Lat != nil && s.Lon != nil {
		mission.AddRow("TARGET:", fmt.Sprintf("%.6f, %.6f", *s.Lat, *s.Lon))
	}
	mission.AddRow("BATTERY:", strconv.Itoa(s.Battery)+"%")
	if _, err := fmt.Fprintln(w, mission); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	rovers := uitable.New()
	rovers.MaxColWidth = maxColWidth
	rovers.AddRow("ROVER", "STATUS", "MOVING", "LAT", "LON", "CAMERA")
	ids := make([]string, 0, len(s.Rovers))
	for id := range s.Rovers {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		r := s.Rovers[id]
		rovers.AddRow(id, r.Status, r.Moving,
			strconv.FormatFloat(r.Lat, 'f', 6, 64),
			strconv.FormatFloat(r.Lon, 'f', 6, 64),
			r.CameraURL)
	}
	_, err := fmt.Fprintln(w, rovers)
	return err
}

func printControl(w io.Writer, res *model.ControlResult) error {
	table := uitable.New()
	table.AddRow("ROVER", "COMMAND", "LAT", "LON")
	table.AddRow(res.RoverID, string(res.Command),
		strconv.FormatFloat(res.NewPosition.Lat, 'f', 6, 64),
		strconv.FormatFloat(res.NewPosition.Lon, 'f', 6, 64))
	_, err := fmt.Fprintln(w, table)
	return err
}

func valueOrDash(p *string) string {
	if p == nil || *p == "" {
		return "-"
	}
	return *p
}
