package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `mqtt:
  broker: "tcp://localhost:1883"
  client_id: "fleetcoord"
  username: "user"
  password: "pass"
  qos:
    notice: 1
    assign: 1
api:
  dispatch_addr: ":8080"
  tracking_addr: ":8081"
metrics:
  prometheus_enabled: true
simulator:
  couriers: 2
  customers: 1
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"broker", cfg.MQTT.Broker, "tcp://localhost:1883"},
		{"client_id", cfg.MQTT.ClientID, "fleetcoord"},
		{"username", cfg.MQTT.Username, "user"},
		{"notice_qos", cfg.MQTT.QoSFor("notice"), byte(1)},
		{"dispatch_addr", cfg.API.DispatchAddr, ":8080"},
		{"tracking_addr", cfg.API.TrackingAddr, ":8081"},
		{"prometheus", cfg.Metrics.PrometheusEnabled, true},
		{"prometheus_addr_default", cfg.Metrics.PrometheusAddr, ":9090"},
		{"couriers", cfg.Simulator.Couriers, 2},
		{"customers", cfg.Simulator.Customers, 1},
		{"mean_delivery_default", cfg.Simulator.MeanDeliverySeconds, 5.0},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoad_SameAddrRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `api:
  dispatch_addr: ":8080"
  tracking_addr: ":8080"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected format error")
	}
}
