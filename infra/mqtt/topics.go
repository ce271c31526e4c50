package mqtt

import "strings"

// Topic layout. The vehicle ID is always the third segment so both bridges
// can recover it from wildcard subscriptions.
const (
	NoticeTopicFilter   = "fleet/notice/+"
	LocationTopicFilter = "fleet/location/+"
	StatusTopicFilter   = "fleet/status/+"
)

// NoticeTopic is where a vehicle publishes its completion notices.
func NoticeTopic(vehicleID string) string { return "fleet/notice/" + vehicleID }

// AssignTopic is where the dispatch authority publishes assignments for the
// vehicle.
func AssignTopic(vehicleID string) string { return "fleet/assign/" + vehicleID }

// LocationTopic is where a vehicle publishes its position reports.
func LocationTopic(vehicleID string) string { return "fleet/location/" + vehicleID }

// StatusTopic carries vehicle presence, including the LWT "offline" payload.
func StatusTopic(vehicleID string) string { return "fleet/status/" + vehicleID }

// VehicleFromTopic extracts the vehicle ID from a three-segment fleet topic.
func VehicleFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) != 3 {
		return ""
	}
	return parts[2]
}
