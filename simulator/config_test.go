package simulator

import "testing"

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	if cfg.Couriers == 0 || cfg.Customers == 0 {
		t.Fatal("expected non-zero actor counts")
	}
	if cfg.MeanDeliverySeconds <= 0 {
		t.Fatal("expected positive mean delivery time")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Couriers: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative couriers")
	}
	cfg = Config{MeanDeliverySeconds: -2}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for negative delivery time")
	}
}
