// Package hcl loads topology descriptions written in HCL and assembles them
// into a validated topology.Application.
//
// Loading happens in two passes per file set. The first pass reads only the
// `variable` blocks, applies caller overrides and builds the evaluation
// context (`var.*` plus a small set of cty standard library functions). The
// second pass decodes families and the application with that context, then
// builds the topology bottom-up: processes, cores, processors, boards and
// finally the application.
package hcl
