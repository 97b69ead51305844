// Package sgp30 drives a Sensirion SGP30 gas sensor over I2C.
//
// Datasheet:
// https://sensirion.com/media/documents/984E0DD5/61644B8B/Sensirion_Gas_Sensors_Datasheet_SGP30.pdf
package sgp30

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"

	"github.com/alepar/sgp30/airquality"
)

// DefaultAddr is the fixed bus address of the SGP30.
const DefaultAddr = 0x58

const (
	cmdGetSerialID       = 0x3682
	cmdGetFeatureSet     = 0x202f
	cmdInitAirQuality    = 0x2003
	cmdMeasureAirQuality = 0x2008

	// max command durations per datasheet
	delaySerial  = 1 * time.Millisecond
	delayFeature = 10 * time.Millisecond
	delayInit    = 10 * time.Millisecond
	delayMeasure = 12 * time.Millisecond

	// upper 4 bits of the feature set word
	productTypeSgp30 = 0x0
)

// Dev is a handle to the device.
type Dev struct {
	c      *i2c.Dev
	serial string
}

// New returns a handle to an SGP30 on the given bus. It reads the chip
// identity and runs the air quality init sequence, so a device that is
// absent or unresponsive is caught here rather than on first read.
func New(bus i2c.Bus) (*Dev, error) {
	d := &Dev{
		c: &i2c.Dev{Bus: bus, Addr: DefaultAddr},
	}

	serial, err := d.readSerial()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read serial id")
	}
	d.serial = serial

	featureSet, err := d.readFeatureSet()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't read feature set")
	}
	if featureSet>>12 != productTypeSgp30 {
		log.Warnf("found unexpected product type in feature set: 0x%04x", featureSet)
	}

	if err := d.command(cmdInitAirQuality, delayInit); err != nil {
		return nil, errors.Wrap(err, "couldn't init air quality measurements")
	}

	return d, nil
}

func (d *Dev) SerialNumber() string {
	return d.serial
}

// Measure issues a single measure_air_quality transaction and returns
// both gas readings from it.
func (d *Dev) Measure() (airquality.Measurement, error) {
	log.Debugf("issuing measurement transaction")
	buf, err := d.read(cmdMeasureAirQuality, delayMeasure, 6)
	if err != nil {
		return airquality.Measurement{}, errors.Wrap(err, "measure transaction failed")
	}

	co2, err := word(buf[0:3])
	if err != nil {
		return airquality.Measurement{}, errors.Wrap(err, "bad co2 word")
	}
	voc, err := word(buf[3:6])
	if err != nil {
		return airquality.Measurement{}, errors.Wrap(err, "bad voc word")
	}

	return airquality.Measurement{Co2Ppm: co2, VocPpb: voc}, nil
}

func (d *Dev) readSerial() (string, error) {
	buf, err := d.read(cmdGetSerialID, delaySerial, 9)
	if err != nil {
		return "", err
	}

	var id uint64
	for i := 0; i < 9; i += 3 {
		w, err := word(buf[i : i+3])
		if err != nil {
			return "", err
		}
		id = id<<16 | uint64(w)
	}
	return fmt.Sprintf("%012x", id), nil
}

func (d *Dev) readFeatureSet() (uint16, error) {
	buf, err := d.read(cmdGetFeatureSet, delayFeature, 3)
	if err != nil {
		return 0, err
	}
	return word(buf)
}

func (d *Dev) read(cmd uint16, wait time.Duration, n int) ([]byte, error) {
	if err := d.command(cmd, wait); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := d.c.Tx(nil, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (d *Dev) command(cmd uint16, wait time.Duration) error {
	if err := d.c.Tx([]byte{byte(cmd >> 8), byte(cmd)}, nil); err != nil {
		return err
	}
	// the chip NACKs reads until the command completes
	time.Sleep(wait)
	return nil
}

// word decodes one big-endian 16-bit word followed by its checksum.
func word(buf []byte) (uint16, error) {
	if got, want := crc8(buf[0:2]), buf[2]; got != want {
		return 0, errors.Errorf("crc mismatch: computed 0x%02x, received 0x%02x", got, want)
	}
	return binary.BigEndian.Uint16(buf[0:2]), nil
}
