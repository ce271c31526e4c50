package simulator

import "fmt"

// Config holds parameters for the simulated fleet.
type Config struct {
	// Couriers is the number of simulated delivery vehicles.
	Couriers int `json:"couriers"`
	// Customers is the number of simulated package senders.
	Customers int `json:"customers"`
	// PackagesPerCustomer is how many packages each customer sends.
	PackagesPerCustomer int `json:"packages_per_customer"`
	// MeanDeliverySeconds is the mean of the exponential delivery time.
	MeanDeliverySeconds float64 `json:"mean_delivery_seconds"`
	// GPSIntervalMS is the position report period while driving.
	GPSIntervalMS int `json:"gps_interval_ms"`
	// OriginLat and OriginLon anchor the simulated region.
	OriginLat float64 `json:"origin_lat"`
	OriginLon float64 `json:"origin_lon"`
	// DispatchURL is the dispatch authority's HTTP base URL.
	DispatchURL string `json:"dispatch_url"`
	// TrackingURL is the tracking authority's HTTP base URL.
	TrackingURL string `json:"tracking_url"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Couriers == 0 {
		c.Couriers = 3
	}
	if c.Customers == 0 {
		c.Customers = 5
	}
	if c.PackagesPerCustomer == 0 {
		c.PackagesPerCustomer = 4
	}
	if c.MeanDeliverySeconds == 0 {
		c.MeanDeliverySeconds = 5
	}
	if c.GPSIntervalMS == 0 {
		c.GPSIntervalMS = 500
	}
	if c.OriginLat == 0 && c.OriginLon == 0 {
		c.OriginLat, c.OriginLon = 48.8566, 2.3522
	}
	if c.DispatchURL == "" {
		c.DispatchURL = "http://localhost:8080"
	}
	if c.TrackingURL == "" {
		c.TrackingURL = "http://localhost:8081"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Couriers < 0 || c.Customers < 0 {
		return fmt.Errorf("couriers and customers must not be negative")
	}
	if c.MeanDeliverySeconds < 0 {
		return fmt.Errorf("mean_delivery_seconds must not be negative")
	}
	return nil
}
