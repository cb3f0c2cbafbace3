package topology

import "slices"

// Application is the root of the topology tree. Its Processes() is the
// canonical input to code generation.
type Application struct {
	name   string
	boards []*Board
}

// NewApplication takes ownership of boards.
func NewApplication(name string, boards []*Board) (*Application, error) {
	if len(boards) == 0 {
		return nil, ErrEmptyApplication
	}
	seen := make(map[*Board]struct{}, len(boards))
	names := make(map[string]struct{}, len(boards))
	for _, b := range boards {
		if b == nil {
			return nil, &TypeMismatchError{Want: "*topology.Board", Got: "nil"}
		}
		if _, dup := seen[b]; dup || b.application != nil {
			return nil, &AlreadyBoundError{Kind: "board", Name: b.name}
		}
		seen[b] = struct{}{}
		if b.name != "" {
			if _, dup := names[b.name]; dup {
				return nil, &DuplicateNameError{Kind: "board", Name: b.name}
			}
			names[b.name] = struct{}{}
		}
	}

	a := &Application{name: name, boards: slices.Clone(boards)}
	for _, b := range a.boards {
		b.application = a
	}
	return a, nil
}

// Processes flattens every Process in board, then processor, then core order.
func (a *Application) Processes() []*Process {
	var out []*Process
	for _, b := range a.boards {
		out = append(out, b.Processes()...)
	}
	return out
}

// Processors flattens every Processor in board order.
func (a *Application) Processors() []*Processor {
	var out []*Processor
	for _, b := range a.boards {
		out = append(out, b.processors...)
	}
	return out
}

// Boards returns a copy of the owned Boards.
func (a *Application) Boards() []*Board { return slices.Clone(a.boards) }

func (a *Application) Name() string { return a.name }
func (a *Application) Kind() string { return "application" }
