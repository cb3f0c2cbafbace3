package topology

// Port is a named, fixed-capacity communication channel. Drivers and Threads
// refer to a Port by name; the owning Process holds the Port itself.
type Port struct {
	name     string
	capacity int
}

// NewPort validates and returns a Port.
func NewPort(name string, capacity int) (Port, error) {
	if err := requireName(name); err != nil {
		return Port{}, &InvalidPortError{Name: name, Capacity: capacity, Reason: "name " + err.Error()}
	}
	if capacity <= 0 {
		return Port{}, &InvalidPortError{Name: name, Capacity: capacity, Reason: "capacity must be positive"}
	}
	return Port{name: name, capacity: capacity}, nil
}

// Name returns the port name.
func (p Port) Name() string { return p.name }

// Capacity returns the number of message slots.
func (p Port) Capacity() int { return p.capacity }
