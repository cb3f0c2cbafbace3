package topology

// Core is the smallest computational unit of a Processor. It runs exactly
// one Process for its whole lifetime.
type Core struct {
	name      string
	process   *Process
	processor *Processor
}

// NewCore binds process to a new Core. The name is optional.
func NewCore(name string, process *Process) (*Core, error) {
	if process == nil {
		return nil, &TypeMismatchError{Want: "*topology.Process", Got: "nil"}
	}
	c := &Core{name: name, process: process}
	if err := process.BindToCore(c); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Core) Name() string          { return c.name }
func (c *Core) Process() *Process     { return c.process }
func (c *Core) Processor() *Processor { return c.processor }
func (c *Core) Kind() string          { return "core" }
