package hkbridge

import (
	"testing"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alepar/sgp30/airquality"
)

type stubSensor struct {
	values       airquality.Measurement
	err          error
	transactions int
}

func (s *stubSensor) SerialNumber() string { return "beefbeefbeef" }

func (s *stubSensor) Measure() (airquality.Measurement, error) {
	s.transactions++
	if s.err != nil {
		return airquality.Measurement{}, s.err
	}
	return s.values, nil
}

func newTestAccessory(sensor airquality.Sensor) *AirQualitySensor {
	return NewAirQualitySensor(accessory.Info{
		Name:         "Air Quality Sensor",
		SerialNumber: sensor.SerialNumber(),
		Manufacturer: "Sensirion",
		Model:        "SGP30",
	}, airquality.NewHandle(sensor))
}

func TestIndexReadCombinesOneTransaction(t *testing.T) {
	sensor := &stubSensor{values: airquality.Measurement{Co2Ppm: 3000, VocPpb: 30}}
	acc := newTestAccessory(sensor)

	value, code := acc.AirQuality.AirQuality.ValueRequestFunc(nil)
	assert.Equal(t, hap.JsonStatusSuccess, code)
	assert.Equal(t, 4, value)
	// both gas tiers must come from the same snapshot
	assert.Equal(t, 1, sensor.transactions)
}

func TestRawReadsReturnFloats(t *testing.T) {
	sensor := &stubSensor{values: airquality.Measurement{Co2Ppm: 612, VocPpb: 48}}
	acc := newTestAccessory(sensor)

	value, code := acc.Co2Level.ValueRequestFunc(nil)
	assert.Equal(t, hap.JsonStatusSuccess, code)
	assert.Equal(t, float64(612), value)

	value, code = acc.VocDensity.ValueRequestFunc(nil)
	assert.Equal(t, hap.JsonStatusSuccess, code)
	assert.Equal(t, float64(48), value)

	// independent reads never share a measurement
	assert.Equal(t, 2, sensor.transactions)
}

func TestFailedReadAnswersNoValue(t *testing.T) {
	sensor := &stubSensor{err: errors.New("bus glitch")}
	acc := newTestAccessory(sensor)

	value, code := acc.AirQuality.AirQuality.ValueRequestFunc(nil)
	assert.Nil(t, value)
	assert.Equal(t, hap.JsonStatusServiceCommunicationFailure, code)

	value, code = acc.Co2Level.ValueRequestFunc(nil)
	assert.Nil(t, value)
	assert.Equal(t, hap.JsonStatusServiceCommunicationFailure, code)

	value, code = acc.VocDensity.ValueRequestFunc(nil)
	assert.Nil(t, value)
	assert.Equal(t, hap.JsonStatusServiceCommunicationFailure, code)

	// a failing sensor must not wedge later reads
	sensor.err = nil
	sensor.values = airquality.Measurement{Co2Ppm: 400, VocPpb: 25}
	value, code = acc.Co2Level.ValueRequestFunc(nil)
	assert.Equal(t, hap.JsonStatusSuccess, code)
	assert.Equal(t, float64(400), value)
}

func TestAccessoryShape(t *testing.T) {
	sensor := &stubSensor{values: airquality.Measurement{Co2Ppm: 400, VocPpb: 25}}
	acc := newTestAccessory(sensor)

	require.NotNil(t, acc.A)
	assert.Equal(t, "Air Quality Sensor", acc.A.Info.Name.Value())
	require.NotNil(t, acc.AirQuality)
	assert.Contains(t, acc.AirQuality.Cs, acc.Co2Level.C)
	assert.Contains(t, acc.AirQuality.Cs, acc.VocDensity.C)
}
