package domain

// User represents a rider. DeviceID is the push-notification target.
type User struct {
	ID       string
	Name     string
	Phone    string
	DeviceID string
}
