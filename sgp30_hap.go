package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	log "github.com/sirupsen/logrus"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/alepar/sgp30/airquality"
	"github.com/alepar/sgp30/airquality/sgp30"
	"github.com/alepar/sgp30/hkbridge"
)

// CLI args
var (
	listenAddr = flag.String("listen-address", ":8080", "The address to listen on for HTTP requests.")
	i2cBusName = flag.String("i2c-bus", "", "name of the I2C bus the SGP30 sits on (empty picks the first available)")
	dataDir    = flag.String("data-dir", "/data/hap", "directory for persisted pairing and bridge state")
)

// metrics to expose to Prometheus
var (
	gaugeCo2Level    = newGauge("air_co2_level", "Air Carbon Dioxide equivalent level (units: ppm)")
	gaugeVocLevel    = newGauge("air_voc_level", "Air Volatile Organic Compounds level (units: ppb)")
	gaugeQualityTier = newGauge("air_quality_tier", "Overall air quality tier (1 excellent .. 5 poor)")

	counterReads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sensor_reads_total",
			Help: "Number of sensor measurement transactions",
		},
		[]string{"serial_number", "result"},
	)
)

func newGauge(name string, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		[]string{"serial_number"},
	)
}

func init() {
	prometheus.MustRegister(gaugeCo2Level)
	prometheus.MustRegister(gaugeVocLevel)
	prometheus.MustRegister(gaugeQualityTier)
	prometheus.MustRegister(counterReads)

	// Add Go module build info.
	prometheus.MustRegister(prometheus.NewBuildInfoCollector())

	//logging
	formatter := &log.TextFormatter{
		FullTimestamp: true,
	}
	log.SetFormatter(formatter)
}

func main() {
	flag.Parse()

	// an unreachable bus or absent chip is an unusable deployment
	if _, err := host.Init(); err != nil {
		log.Fatalf("failed to init host: %s", err)
	}
	bus, err := i2creg.Open(*i2cBusName)
	if err != nil {
		log.Fatalf("failed to open i2c bus: %s", err)
	}
	defer bus.Close()

	dev, err := sgp30.New(bus)
	if err != nil {
		log.Fatalf("failed to init sgp30: %s", err)
	}
	log.Printf("Found: SGP30 serialNr %s", dev.SerialNumber())

	handle := airquality.NewHandle(&instrumentedSensor{dev: dev})

	store := hap.NewFsStore(*dataDir)
	cfg, err := hkbridge.EnsureConfig(store)
	if err != nil {
		log.Fatalf("failed to bootstrap bridge config: %s", err)
	}

	acc := hkbridge.NewAirQualitySensor(accessory.Info{
		Name:         cfg.Name,
		SerialNumber: dev.SerialNumber(),
		Manufacturer: "Sensirion",
		Model:        "SGP30",
	}, handle)

	server, err := hap.NewServer(store, acc.A)
	if err != nil {
		log.Fatalf("failed to create hap server: %s", err)
	}
	server.Pin = cfg.Pin
	server.Addr = cfg.Addr

	go func() {
		// Expose the registered metrics via HTTP.
		http.Handle("/metrics", promhttp.HandlerFor(
			prometheus.DefaultGatherer,
			promhttp.HandlerOpts{
				// Opt into OpenMetrics to support exemplars.
				EnableOpenMetrics: true,
			},
		))
		log.Panic(http.ListenAndServe(*listenAddr, nil))
	}()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		cancel()
	}()

	log.Printf("serving %s on %s", cfg.Name, cfg.Addr)
	if err := server.ListenAndServe(ctx); err != nil && err != context.Canceled {
		log.Errorf("hap server stopped: %s", err)
	}
}

// instrumentedSensor mirrors every successful measurement into the
// Prometheus gauges, next to the HomeKit read path.
type instrumentedSensor struct {
	dev *sgp30.Dev
}

func (s *instrumentedSensor) SerialNumber() string {
	return s.dev.SerialNumber()
}

func (s *instrumentedSensor) Measure() (airquality.Measurement, error) {
	serialNr := s.dev.SerialNumber()

	values, err := s.dev.Measure()
	if err != nil {
		counterReads.WithLabelValues(serialNr, "error").Inc()
		return airquality.Measurement{}, err
	}
	counterReads.WithLabelValues(serialNr, "ok").Inc()

	gaugeCo2Level.WithLabelValues(serialNr).Set(float64(values.Co2Ppm))
	gaugeVocLevel.WithLabelValues(serialNr).Set(float64(values.VocPpb))
	gaugeQualityTier.WithLabelValues(serialNr).Set(float64(airquality.Combined(values)))

	return values, nil
}
