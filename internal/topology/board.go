package topology

import "slices"

// BoardOption configures optional Board attributes.
type BoardOption func(*Board)

// WithBoardFamily records the board family name.
func WithBoardFamily(name string) BoardOption {
	return func(b *Board) { b.family = name }
}

// Board owns one or more Processors and carries board-level resource
// attributes checked against the board family.
type Board struct {
	name        string
	family      string
	memorySize  int
	processors  []*Processor
	application *Application
}

// NewBoard validates processors and memorySize and takes ownership of the
// processors. memorySize must be one of allowed.
func NewBoard(name string, processors []*Processor, memorySize int, allowed []int, opts ...BoardOption) (*Board, error) {
	if len(processors) == 0 {
		return nil, ErrEmptyBoard
	}
	if !slices.Contains(allowed, memorySize) {
		return nil, &InvalidMemorySizeError{Value: memorySize, Allowed: slices.Clone(allowed)}
	}

	seen := make(map[*Processor]struct{}, len(processors))
	names := make(map[string]struct{}, len(processors))
	for _, p := range processors {
		if p == nil {
			return nil, &TypeMismatchError{Want: "*topology.Processor", Got: "nil"}
		}
		if _, dup := seen[p]; dup || p.board != nil {
			return nil, &AlreadyBoundError{Kind: "processor", Name: p.name}
		}
		seen[p] = struct{}{}
		if p.name != "" {
			if _, dup := names[p.name]; dup {
				return nil, &DuplicateNameError{Kind: "processor", Name: p.name}
			}
			names[p.name] = struct{}{}
		}
	}

	b := &Board{
		name:       name,
		memorySize: memorySize,
		processors: slices.Clone(processors),
	}
	for _, opt := range opts {
		opt(b)
	}
	for _, p := range b.processors {
		p.board = b
	}
	return b, nil
}

// Processes flattens the Processes of every Processor, in declaration order.
func (b *Board) Processes() []*Process {
	var out []*Process
	for _, p := range b.processors {
		out = append(out, p.Processes()...)
	}
	return out
}

// Processors returns a copy of the owned Processors.
func (b *Board) Processors() []*Processor { return slices.Clone(b.processors) }

func (b *Board) Name() string              { return b.name }
func (b *Board) Family() string            { return b.family }
func (b *Board) MemorySize() int           { return b.memorySize }
func (b *Board) Application() *Application { return b.application }
func (b *Board) Kind() string              { return "board" }
