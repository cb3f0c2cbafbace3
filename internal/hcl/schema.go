package hcl

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// variableBlock is a `variable "name" {}` block.
type variableBlock struct {
	Type        hcl.Expression `hcl:"type,optional"`
	Default     *cty.Value     `hcl:"default,optional"`
	Description string         `hcl:"description,optional"`
}

// topologyFile is everything in a file besides variables.
type topologyFile struct {
	ProcessorFamilies []*processorFamilyBlock `hcl:"processor_family,block"`
	BoardFamilies     []*boardFamilyBlock     `hcl:"board_family,block"`
	Applications      []*applicationBlock     `hcl:"application,block"`
}

type processorFamilyBlock struct {
	Name        string         `hcl:"name,label"`
	Description string         `hcl:"description,optional"`
	CoreLimit   int            `hcl:"core_limit"`
	Compiler    *compilerBlock `hcl:"compiler,block"`
}

type boardFamilyBlock struct {
	Name            string `hcl:"name,label"`
	Description     string `hcl:"description,optional"`
	MemorySizes     []int  `hcl:"memory_sizes"`
	ProcessorFamily string `hcl:"processor_family,optional"`
}

type applicationBlock struct {
	Name   string        `hcl:"name,label"`
	Boards []*boardBlock `hcl:"board,block"`

	DefRange hcl.Range `hcl:",def_range"`
}

type boardBlock struct {
	Name        string            `hcl:"name,label"`
	Family      string            `hcl:"family,optional"`
	MemorySize  int               `hcl:"memory_size"`
	MemorySizes []int             `hcl:"memory_sizes,optional"`
	Processors  []*processorBlock `hcl:"processor,block"`

	DefRange hcl.Range `hcl:",def_range"`
}

type processorBlock struct {
	Name      string          `hcl:"name,label"`
	Family    string          `hcl:"family,optional"`
	CoreLimit *int            `hcl:"core_limit,optional"`
	Compiler  *compilerBlock  `hcl:"compiler,block"`
	Scheduler *schedulerBlock `hcl:"scheduler,block"`
	Cores     []*coreBlock    `hcl:"core,block"`

	DefRange hcl.Range `hcl:",def_range"`
}

type schedulerBlock struct {
	Policy  string         `hcl:"policy,optional"`
	Weights map[string]int `hcl:"weights,optional"`
	Pins    map[string]int `hcl:"pins,optional"`
}

type coreBlock struct {
	Name    string        `hcl:"name,label"`
	Process *processBlock `hcl:"process,block"`

	DefRange hcl.Range `hcl:",def_range"`
}

type processBlock struct {
	Name            string         `hcl:"name,label"`
	IPC             bool           `hcl:"ipc,optional"`
	StaticScheduler bool           `hcl:"static_scheduler,optional"`
	Threads         []string       `hcl:"threads,optional"`
	Files           []string       `hcl:"files,optional"`
	Includes        []string       `hcl:"includes,optional"`
	Compiler        *compilerBlock `hcl:"compiler,block"`
	Ports           []*portBlock   `hcl:"port,block"`
	Mempools        []*portBlock   `hcl:"mempool,block"`
	Drivers         []*driverBlock `hcl:"driver,block"`

	DefRange hcl.Range `hcl:",def_range"`
}

type portBlock struct {
	Name     string `hcl:"name,label"`
	Capacity int    `hcl:"capacity"`
}

type driverBlock struct {
	Name    string   `hcl:"name,label"`
	Boot    string   `hcl:"boot"`
	Main    string   `hcl:"main"`
	Exit    string   `hcl:"exit"`
	Files   []string `hcl:"files,optional"`
	Ports   []string `hcl:"ports,optional"`
	Version int      `hcl:"version,optional"`
}

// compilerBlock uses pointers so that an absent attribute stays unset
// instead of decoding to a zero value.
type compilerBlock struct {
	Base           *string   `hcl:"base,optional"`
	Includes       *[]string `hcl:"includes,optional"`
	IncludeFlag    *string   `hcl:"include_flag,optional"`
	ExecutableName *string   `hcl:"executable_name,optional"`
	Options        *[]string `hcl:"options,optional"`
}
