package model

type NetworkStatus string

const (
	NetworkOnline  NetworkStatus = "online"
	NetworkOffline NetworkStatus = "offline"
	NetworkUnknown NetworkStatus = "unknown"
)

// NetworkInfo is the ephemeral connectivity snapshot. Never persisted.
type NetworkInfo struct {
	Status              NetworkStatus     `json:"status"`
	IsConnected         bool              `json:"is_connected"`
	ConnectionType      string            `json:"connection_type"`
	IsInternetReachable bool              `json:"is_internet_reachable"`
	Details             map[string]string `json:"details,omitempty"`
}

// NetworkEvent is one raw connectivity event from the underlying source.
// Nil booleans mean the source could not determine the value.
type NetworkEvent struct {
	Connected         *bool             `json:"connected"`
	InternetReachable *bool             `json:"internet_reachable"`
	Type              string            `json:"type"`
	Details           map[string]string `json:"details,omitempty"`
}
