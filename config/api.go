package config

import "fmt"

// APIConfig defines the HTTP listen addresses of the two authorities.
type APIConfig struct {
	// DispatchAddr is the dispatch authority's listen address.
	DispatchAddr string `json:"dispatch_addr"`
	// TrackingAddr is the tracking authority's listen address.
	TrackingAddr string `json:"tracking_addr"`
	// DispatchURL, when set, makes the tracking authority query delivery
	// counts over HTTP instead of the in-process store.
	DispatchURL string `json:"dispatch_url"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.DispatchAddr == "" {
		c.DispatchAddr = ":8080"
	}
	if c.TrackingAddr == "" {
		c.TrackingAddr = ":8081"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.DispatchAddr == c.TrackingAddr {
		return fmt.Errorf("dispatch_addr and tracking_addr must differ")
	}
	return nil
}
