package topology

import "fmt"

// DriverSpec holds the raw fields of a Driver before validation.
type DriverSpec struct {
	Name    string
	Boot    string
	Main    string
	Exit    string
	Files   []string
	Ports   []string
	Version int
}

// Driver is a hardware-facing code unit with boot, main and exit entry
// points. It is an immutable value owned by one Process.
type Driver struct {
	name    string
	boot    string
	main    string
	exit    string
	files   []string
	ports   []string
	version int
}

// NewDriver validates spec and returns the Driver. Repeated files and port
// names collapse to their first occurrence.
func NewDriver(spec DriverSpec) (Driver, error) {
	required := []struct {
		field string
		value string
	}{
		{"name", spec.Name},
		{"entry_boot", spec.Boot},
		{"entry_main", spec.Main},
		{"entry_exit", spec.Exit},
	}
	for _, r := range required {
		if err := requireName(r.value); err != nil {
			return Driver{}, &InvalidDriverError{Name: spec.Name, Field: r.field, Reason: err.Error()}
		}
	}
	if spec.Version < 0 {
		return Driver{}, &InvalidDriverError{Name: spec.Name, Field: "version", Reason: fmt.Sprintf("must be non-negative, got %d", spec.Version)}
	}
	if err := requirePaths(spec.Files); err != nil {
		return Driver{}, &InvalidDriverError{Name: spec.Name, Field: "files", Reason: err.Error()}
	}
	for _, p := range spec.Ports {
		if err := requireName(p); err != nil {
			return Driver{}, &InvalidDriverError{Name: spec.Name, Field: "ports", Reason: "port reference " + err.Error()}
		}
	}

	return Driver{
		name:    spec.Name,
		boot:    spec.Boot,
		main:    spec.Main,
		exit:    spec.Exit,
		files:   uniqueOrdered(spec.Files),
		ports:   uniqueOrdered(spec.Ports),
		version: spec.Version,
	}, nil
}

func (d Driver) Name() string      { return d.name }
func (d Driver) EntryBoot() string { return d.boot }
func (d Driver) EntryMain() string { return d.main }
func (d Driver) EntryExit() string { return d.exit }
func (d Driver) Version() int      { return d.version }

// Files returns a copy of the driver's source files.
func (d Driver) Files() []string { return cloneStrings(d.files) }

// Ports returns a copy of the port names the driver references.
func (d Driver) Ports() []string { return cloneStrings(d.ports) }
