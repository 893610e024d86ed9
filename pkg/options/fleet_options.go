package options

import (
	"fmt"
	"sort"

	"github.com/spf13/pflag"
)

var _ IOptions = (*FleetOptions)(nil)

const defaultCameraURL = "https://images.unsplash.com/photo-1614728853975-6b45d2e057ba?q=80&w=2670&fit=crop"

// FleetOptions declares the closed set of rovers known at startup.
type FleetOptions struct {
	// Rovers maps rover ID to its camera feed URL.
	Rovers map[string]string `json:"rovers" mapstructure:"rovers"`

	// Battery is the initial battery percentage reported in the state.
	Battery int `json:"battery" mapstructure:"battery"`
}

func NewFleetOptions() *FleetOptions {
	return &FleetOptions{
		Rovers: map[string]string{
			"jetson": defaultCameraURL,
			"pi":     defaultCameraURL,
		},
		Battery: 100,
	}
}

func (o *FleetOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if len(o.Rovers) == 0 {
		errs = append(errs, fmt.Errorf("--fleet.rovers must name at least one rover"))
	}
	for id := range o.Rovers {
		if id == "" {
			errs = append(errs, fmt.Errorf("--fleet.rovers contains an empty rover id"))
		}
	}
	if o.Battery < 0 || o.Battery > 100 {
		errs = append(errs, fmt.Errorf("--fleet.battery must be within 0-100, got %d", o.Battery))
	}
	return errs
}

func (o *FleetOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringToStringVar(&o.Rovers, "fleet.rovers", o.Rovers, "Rover fleet as id=cameraURL pairs.")
	fs.IntVar(&o.Battery, "fleet.battery", o.Battery, "Initial battery percentage.")
}

// RoverIDs returns the configured rover ids in a stable order.
func (o *FleetOptions) RoverIDs() []string {
	ids := make([]string, 0, len(o.Rovers))
	for id := range o.Rovers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
