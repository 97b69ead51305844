package airquality

// Measurement is a single snapshot taken from the gas sensor.
// Both values come from the same hardware transaction and are
// therefore mutually consistent.
type Measurement struct {
	// units: ppm (CO2 equivalent)
	Co2Ppm uint16

	// units: ppb (total VOC)
	VocPpb uint16
}

type Sensor interface {
	SerialNumber() string
	Measure() (Measurement, error)
}
