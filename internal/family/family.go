// Package family holds the hardware lookup tables the topology is checked
// against: how many cores a processor family supports, which toolchain it
// pins, and which memory sizes a board family accepts.
//
// A Catalog is immutable. Extending one returns a new Catalog, so a table
// handed to a loader can never change underneath it.
package family

import (
	"fmt"
	"slices"
	"sort"

	"github.com/specialistvlad/coregrid/internal/topology"
)

// ProcessorFamily describes one processor architecture.
type ProcessorFamily struct {
	Name        string
	Description string
	CoreLimit   int
	// Compiler is applied on top of every process compiler config of a
	// processor of this family. The zero value applies nothing.
	Compiler topology.CompilerConfig
}

// BoardFamily describes one board design.
type BoardFamily struct {
	Name        string
	Description string
	MemorySizes []int
	// ProcessorFamily is used for processors on the board that name no
	// family of their own.
	ProcessorFamily string
}

// Catalog is an immutable set of processor and board families.
type Catalog struct {
	processors map[string]ProcessorFamily
	boards     map[string]BoardFamily
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		processors: make(map[string]ProcessorFamily),
		boards:     make(map[string]BoardFamily),
	}
}

// Builtin returns the families compiled into the binary.
func Builtin() *Catalog {
	c := NewCatalog()
	for _, pf := range builtinProcessors() {
		c.processors[pf.Name] = pf
	}
	for _, bf := range builtinBoards() {
		c.boards[bf.Name] = bf
	}
	return c
}

func builtinProcessors() []ProcessorFamily {
	catalina, err := topology.NewCompilerConfig(topology.WithExecutableName("catalina"))
	if err != nil {
		panic(fmt.Sprintf("family: invalid built-in compiler override: %v", err))
	}
	return []ProcessorFamily{
		{
			Name:        "p8x32a",
			Description: "Parallax Propeller 1, eight cogs sharing hub memory.",
			CoreLimit:   8,
			Compiler:    catalina,
		},
		{
			Name:        "single-core",
			Description: "Any single-core microcontroller.",
			CoreLimit:   1,
		},
	}
}

func builtinBoards() []BoardFamily {
	return []BoardFamily{
		{
			Name:            "propeller-demo",
			Description:     "Propeller demo board with selectable EEPROM size.",
			MemorySizes:     []int{1, 5, 12},
			ProcessorFamily: "p8x32a",
		},
	}
}

// Processor looks up a processor family.
func (c *Catalog) Processor(name string) (ProcessorFamily, bool) {
	pf, ok := c.processors[name]
	return pf, ok
}

// Board looks up a board family.
func (c *Catalog) Board(name string) (BoardFamily, bool) {
	bf, ok := c.boards[name]
	if ok {
		bf.MemorySizes = slices.Clone(bf.MemorySizes)
	}
	return bf, ok
}

// ProcessorFamilies returns every processor family sorted by name.
func (c *Catalog) ProcessorFamilies() []ProcessorFamily {
	out := make([]ProcessorFamily, 0, len(c.processors))
	for _, pf := range c.processors {
		out = append(out, pf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// BoardFamilies returns every board family sorted by name.
func (c *Catalog) BoardFamilies() []BoardFamily {
	out := make([]BoardFamily, 0, len(c.boards))
	for _, bf := range c.boards {
		bf.MemorySizes = slices.Clone(bf.MemorySizes)
		out = append(out, bf)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Extend returns a new Catalog holding c's families plus the given ones. A
// family with the same name as an existing one replaces it, and its name is
// reported in replaced. c itself is left untouched.
func (c *Catalog) Extend(processors []ProcessorFamily, boards []BoardFamily) (next *Catalog, replaced []string, err error) {
	next = NewCatalog()
	for k, v := range c.processors {
		next.processors[k] = v
	}
	for k, v := range c.boards {
		next.boards[k] = v
	}

	seen := make(map[string]struct{})
	for _, pf := range processors {
		if err := validateProcessor(pf); err != nil {
			return nil, nil, err
		}
		key := "processor_family." + pf.Name
		if _, dup := seen[key]; dup {
			return nil, nil, &topology.DuplicateNameError{Kind: "processor_family", Name: pf.Name}
		}
		seen[key] = struct{}{}
		if _, ok := next.processors[pf.Name]; ok {
			replaced = append(replaced, key)
		}
		next.processors[pf.Name] = pf
	}
	for _, bf := range boards {
		if err := validateBoard(bf); err != nil {
			return nil, nil, err
		}
		key := "board_family." + bf.Name
		if _, dup := seen[key]; dup {
			return nil, nil, &topology.DuplicateNameError{Kind: "board_family", Name: bf.Name}
		}
		seen[key] = struct{}{}
		if _, ok := next.boards[bf.Name]; ok {
			replaced = append(replaced, key)
		}
		bf.MemorySizes = slices.Clone(bf.MemorySizes)
		next.boards[bf.Name] = bf
	}

	// Board defaults may point at processor families declared alongside them.
	for _, bf := range boards {
		if bf.ProcessorFamily == "" {
			continue
		}
		if _, ok := next.processors[bf.ProcessorFamily]; !ok {
			return nil, nil, fmt.Errorf("board family %q: unknown processor family %q", bf.Name, bf.ProcessorFamily)
		}
	}
	return next, replaced, nil
}

func validateProcessor(pf ProcessorFamily) error {
	if pf.Name == "" {
		return &topology.InvalidConfigError{Field: "processor_family", Reason: "name must be a non-empty string"}
	}
	if pf.CoreLimit < 1 {
		return &topology.InvalidConfigError{Field: "core_limit", Reason: fmt.Sprintf("processor family %q: must be at least 1, got %d", pf.Name, pf.CoreLimit)}
	}
	return nil
}

func validateBoard(bf BoardFamily) error {
	if bf.Name == "" {
		return &topology.InvalidConfigError{Field: "board_family", Reason: "name must be a non-empty string"}
	}
	if len(bf.MemorySizes) == 0 {
		return &topology.InvalidConfigError{Field: "memory_sizes", Reason: fmt.Sprintf("board family %q: at least one size is required", bf.Name)}
	}
	for _, s := range bf.MemorySizes {
		if s <= 0 {
			return &topology.InvalidConfigError{Field: "memory_sizes", Reason: fmt.Sprintf("board family %q: sizes must be positive, got %d", bf.Name, s)}
		}
	}
	return nil
}
