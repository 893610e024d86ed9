package roverctl

import (
	"time"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"

	"github.com/autopeer-io/roverhub/internal/roverhub/core/model"
)

const (
	defaultServer  = "http://localhost:5001"
	defaultTimeout = 10 * time.Second
)

type rootOptions struct {
	server  string
	timeout time.Duration
}

func (o *rootOptions) client() *Client {
	return NewClient(o.server, o.timeout)
}

// NewRoverctlCommand returns the roverctl root command.
func NewRoverctlCommand() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "roverctl",
		Short:         "Operate a rover hub from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().SetNormalizeFunc(cliflag.WordSepNormalizeFunc)
	cmd.PersistentFlags().StringVarP(&o.server, "server", "s", defaultServer, "Base URL of the rover hub.")
	cmd.PersistentFlags().DurationVar(&o.timeout, "timeout", defaultTimeout, "Timeout of a single request.")

	cmd.AddCommand(
		newStatusCommand(o),
		newMissionCommand(o),
		newRoverCommand(o),
	)
	return cmd
}

func newStatusCommand(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the mission and rover state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := o.client().Status(cmd.Context())
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		},
	}
}

func newMissionCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mission",
		Short: "Start or complete the mission",
	}

	var (
		lat, lon          float64
		payload, priority string
	)
	start := &cobra.Command{
		Use:   "start",
		Short: "Start a mission towards a target",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params := model.MissionParams{Lat: &lat, Lon: &lon, Payload: &payload, Priority: &priority}
			state, err := o.client().StartMission(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		},
	}
	start.Flags().Float64Var(&lat, "lat", 0, "Target latitude.")
	start.Flags().Float64Var(&lon, "lon", 0, "Target longitude.")
	start.Flags().StringVar(&payload, "payload", "", "Payload carried by the mission.")
	start.Flags().StringVar(&priority, "priority", "", "Mission priority.")
	for _, name := range []string{"lat", "lon", "payload", "priority"} {
		_ = start.MarkFlagRequired(name)
	}

	complete := &cobra.Command{
		Use:   "complete",
		Short: "Mark the active mission as completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			state, err := o.client().CompleteMission(cmd.Context())
			if err != nil {
				return err
			}
			return printState(cmd.OutOrStdout(), state)
		},
	}

	cmd.AddCommand(start, complete)
	return cmd
}

func newRoverCommand(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rover",
		Short: "Drive a rover",
	}

	valid := make([]string, 0, len(model.RoverCommands()))
	for _, c := range model.RoverCommands() {
		valid = append(valid, string(c))
	}
	control := &cobra.Command{
		Use:       "control ROVER_ID COMMAND",
		Short:     "Send a motion command (forward, backward, left, right, stop)",
		Args:      cobra.ExactArgs(2),
		ValidArgs: valid,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := o.client().ControlRover(cmd.Context(), args[0], model.RoverCommand(args[1]))
			if err != nil {
				return err
			}
			return printControl(cmd.OutOrStdout(), res)
		},
	}

	cmd.AddCommand(control)
	return cmd
}
