// Package hkbridge adapts the gas sensor to a HomeKit accessory.
package hkbridge

import (
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"
	log "github.com/sirupsen/logrus"

	"github.com/alepar/sgp30/airquality"
)

// AirQualitySensor is a HomeKit air quality accessory backed by a
// combined CO2/VOC gas sensor.
type AirQualitySensor struct {
	A *accessory.A

	AirQuality *service.AirQualitySensor
	Co2Level   *characteristic.CarbonDioxideLevel
	VocDensity *characteristic.VOCDensity
}

// NewAirQualitySensor builds the accessory and wires its three read
// callbacks to the shared sensor handle. Each callback performs its
// own measurement transaction; only the overall index combines both
// gases from one transaction.
func NewAirQualitySensor(info accessory.Info, handle *airquality.Handle) *AirQualitySensor {
	acc := AirQualitySensor{}
	acc.A = accessory.New(info, accessory.TypeSensor)

	acc.AirQuality = service.NewAirQualitySensor()
	acc.Co2Level = characteristic.NewCarbonDioxideLevel()
	acc.VocDensity = characteristic.NewVOCDensity()
	acc.AirQuality.AddC(acc.Co2Level.C)
	acc.AirQuality.AddC(acc.VocDensity.C)
	acc.A.AddS(acc.AirQuality.S)

	acc.AirQuality.AirQuality.ValueRequestFunc = indexBinding(handle)
	acc.Co2Level.ValueRequestFunc = co2Binding(handle)
	acc.VocDensity.ValueRequestFunc = vocBinding(handle)

	return &acc
}

// A failed read answers "no value" with a communication-failure status
// so the controller shows the characteristic as unavailable. It must
// never take the server down.

func indexBinding(handle *airquality.Handle) func(*http.Request) (interface{}, int) {
	return func(_ *http.Request) (interface{}, int) {
		values, err := handle.Measure()
		if err != nil {
			log.Errorf("air quality read failed: %s", err)
			return nil, hap.JsonStatusServiceCommunicationFailure
		}
		return int(airquality.Combined(values)), hap.JsonStatusSuccess
	}
}

func co2Binding(handle *airquality.Handle) func(*http.Request) (interface{}, int) {
	return func(_ *http.Request) (interface{}, int) {
		values, err := handle.Measure()
		if err != nil {
			log.Errorf("co2 level read failed: %s", err)
			return nil, hap.JsonStatusServiceCommunicationFailure
		}
		return float64(values.Co2Ppm), hap.JsonStatusSuccess
	}
}

func vocBinding(handle *airquality.Handle) func(*http.Request) (interface{}, int) {
	return func(_ *http.Request) (interface{}, int) {
		values, err := handle.Measure()
		if err != nil {
			log.Errorf("voc density read failed: %s", err)
			return nil, hap.JsonStatusServiceCommunicationFailure
		}
		return float64(values.VocPpb), hap.JsonStatusSuccess
	}
}
