package domain

// Driver represents a driver in the system. Available is owned and mutated
// exclusively by the ride lifecycle engine: it flips to false on acceptance
// and back to true on drop-off.
type Driver struct {
	ID        string
	Name      string
	Phone     string
	DeviceID  string
	Available bool
}
