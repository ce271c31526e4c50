package model

// CompletionNotice is what a vehicle sends on its dispatch session before
// asking for the next assignment. A zero PackageID means "nothing to report
// yet"; the session still blocks for the next assignment.
type CompletionNotice struct {
	VehicleID string `json:"vehicle_id"`
	PackageID int64  `json:"package_id,omitempty"`
	Delivered bool   `json:"delivered,omitempty"`
}

// Empty reports whether the notice carries no delivery to record.
func (n CompletionNotice) Empty() bool { return n.PackageID == 0 }

// Assignment hands a package to a vehicle. Receiving one means the package
// already transitioned to InTransit on the dispatch authority.
type Assignment struct {
	PackageID       int64  `json:"package_id"`
	VehicleID       string `json:"vehicle_id"`
	PickupAddress   string `json:"pickup_address"`
	DeliveryAddress string `json:"delivery_address"`
}
