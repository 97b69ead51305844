package hkbridge

import (
	"encoding/json"
	"net"
	"strconv"

	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const configKey = "bridge.json"

const (
	defaultPort     = 32000
	defaultPin      = "11122333"
	defaultName     = "Air Quality Sensor"
	defaultDeviceID = "0A:14:1E:28:32:3C"
)

// BridgeConfig is the persisted identity of this accessory bridge.
// It is derived once on first run and immutable afterwards.
type BridgeConfig struct {
	Addr     string `json:"addr"`
	Pin      string `json:"pin"`
	Name     string `json:"name"`
	DeviceID string `json:"device_id"`
	Category byte   `json:"category"`
}

// EnsureConfig loads the persisted bridge config, or on first run
// derives one and persists it. A config that cannot be persisted is a
// startup failure; the caller must not serve with unsaved identity.
func EnsureConfig(store hap.Store) (BridgeConfig, error) {
	if raw, err := store.Get(configKey); err == nil && len(raw) > 0 {
		var cfg BridgeConfig
		if err := json.Unmarshal(raw, &cfg); err == nil {
			log.Debugf("loaded bridge config: %s at %s", cfg.Name, cfg.Addr)
			return cfg, nil
		}
		log.Errorf("persisted bridge config is unreadable, deriving a fresh one")
	}

	cfg, err := deriveConfig()
	if err != nil {
		return BridgeConfig{}, err
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return BridgeConfig{}, errors.Wrap(err, "couldn't encode bridge config")
	}
	if err := store.Set(configKey, raw); err != nil {
		return BridgeConfig{}, errors.Wrap(err, "couldn't persist bridge config")
	}

	log.Printf("derived bridge config: %s at %s", cfg.Name, cfg.Addr)
	return cfg, nil
}

func deriveConfig() (BridgeConfig, error) {
	ip, err := firstIPv4()
	if err != nil {
		return BridgeConfig{}, err
	}
	return BridgeConfig{
		Addr:     net.JoinHostPort(ip.String(), strconv.Itoa(defaultPort)),
		Pin:      defaultPin,
		Name:     defaultName,
		DeviceID: defaultDeviceID,
		Category: accessory.TypeSensor,
	}, nil
}

// firstIPv4 returns the first non-loopback IPv4 address bound to any
// local interface.
func firstIPv4() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't list network interfaces")
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			var ip net.IP
			switch a := addr.(type) {
			case *net.IPNet:
				ip = a.IP
			case *net.IPAddr:
				ip = a.IP
			}
			if ip == nil || ip.IsLoopback() {
				continue
			}
			if ip4 := ip.To4(); ip4 != nil {
				return ip4, nil
			}
		}
	}

	return nil, errors.New("no non-loopback IPv4 address found")
}
