package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*WebSocketOptions)(nil)

// WebSocketOptions tunes the real-time observer channel.
type WebSocketOptions struct {
	// ReadLimit is the largest inbound frame accepted. Distress frames carry
	// base64 audio, so this is well above a control frame.
	ReadLimit int64 `json:"read-limit" mapstructure:"read-limit"`

	// SendBuffer is the per-observer outbound queue length. An observer that
	// falls this far behind is disconnected.
	SendBuffer int `json:"send-buffer" mapstructure:"send-buffer"`

	WriteWait time.Duration `json:"write-wait" mapstructure:"write-wait"`
	PongWait  time.Duration `json:"pong-wait" mapstructure:"pong-wait"`
}

func NewWebSocketOptions() *WebSocketOptions {
	return &WebSocketOptions{
		ReadLimit:  8 << 20,
		SendBuffer: 256,
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
	}
}

func (o *WebSocketOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.ReadLimit <= 0 {
		errs = append(errs, fmt.Errorf("--ws.read-limit must be positive"))
	}
	if o.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("--ws.send-buffer must be positive"))
	}
	if o.WriteWait <= 0 || o.PongWait <= 0 {
		errs = append(errs, fmt.Errorf("--ws.write-wait and --ws.pong-wait must be positive"))
	}
	return errs
}

func (o *WebSocketOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.Int64Var(&o.ReadLimit, "ws.read-limit", o.ReadLimit, "Maximum inbound WebSocket frame size in bytes.")
	fs.IntVar(&o.SendBuffer, "ws.send-buffer", o.SendBuffer, "Outbound messages buffered per observer before it is dropped.")
	fs.DurationVar(&o.WriteWait, "ws.write-wait", o.WriteWait, "Time allowed to write a frame to an observer.")
	fs.DurationVar(&o.PongWait, "ws.pong-wait", o.PongWait, "Time allowed between pongs before an observer is considered dead.")
}

// PingPeriod must stay below PongWait.
func (o *WebSocketOptions) PingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}
