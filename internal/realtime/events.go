package realtime

import "encoding/json"

// Socket event names.
const (
	EventJoinBusRoom          = "joinBusRoom"
	EventLeaveBusRoom         = "leaveBusRoom"
	EventDriverLocationUpdate = "driverLocationUpdate"
	EventBusLocationUpdate    = "busLocationUpdate"
	EventLocationAck          = "locationAck"
	EventError                = "error"
)

// Envelope is the wire format in both directions: {"event": "...", "data": ...}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(outbound{Event: event, Data: payload})
}

// DriverLocationMessage is the data of a driverLocationUpdate event. BusID is optional; when
// present it must match the driver's assigned bus. Both coordinates are required, so a nil
// field means the driver did not send it.
type DriverLocationMessage struct {
	BusID     string   `json:"busId,omitempty"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}
