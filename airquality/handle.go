package airquality

import (
	"sync"

	"github.com/pkg/errors"
)

// Handle owns exclusive access to the one physical sensor for the
// process lifetime. Characteristic reads arrive concurrently from the
// protocol layer; the SGP30 accepts a single in-flight transaction at
// a time, so Measure serializes callers.
type Handle struct {
	mu     sync.Mutex
	sensor Sensor
}

func NewHandle(sensor Sensor) *Handle {
	return &Handle{sensor: sensor}
}

func (h *Handle) SerialNumber() string {
	return h.sensor.SerialNumber()
}

// Measure performs exactly one hardware transaction. A transaction
// failure is returned to the caller; the handle stays usable for
// subsequent reads.
func (h *Handle) Measure() (Measurement, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	values, err := h.sensor.Measure()
	if err != nil {
		return Measurement{}, errors.Wrap(err, "failed to read from sensor")
	}
	return values, nil
}
