// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// This file defines CompilerConfig, the per-process toolchain description.
//
// Why track "unset" separately from "empty"?
//
// A generic process usually carries a full toolchain description, and a
// concrete hardware description (a processor family, a demo board) narrows
// only the fields it cares about, typically the executable name. Override
// therefore has to know which fields the overriding config actually set. An
// explicitly empty include list is a real setting ("no includes"), while an
// absent one means "inherit whatever is there".
package topology

import (
	"fmt"
	"strings"
)

// CompilerConfig is an immutable toolchain description. The zero value is a
// valid config with every field unset.
type CompilerConfig struct {
	base           *string
	includeFlag    *string
	executableName *string
	includes       []string
	hasIncludes    bool
	options        []string
	hasOptions     bool
}

// CompilerOption sets one field of a CompilerConfig under construction.
type CompilerOption func(*CompilerConfig)

// WithBase sets the toolchain base directory.
func WithBase(path string) CompilerOption {
	return func(c *CompilerConfig) { c.base = &path }
}

// WithIncludes sets the include search paths. Calling it with no paths sets
// an explicitly empty list.
func WithIncludes(paths ...string) CompilerOption {
	return func(c *CompilerConfig) {
		c.includes = cloneStrings(paths)
		if c.includes == nil {
			c.includes = []string{}
		}
		c.hasIncludes = true
	}
}

// WithIncludeFlag sets the flag emitted before every include path, e.g. "-I".
func WithIncludeFlag(flag string) CompilerOption {
	return func(c *CompilerConfig) { c.includeFlag = &flag }
}

// WithExecutableName sets the toolchain executable, e.g. "gcc".
func WithExecutableName(name string) CompilerOption {
	return func(c *CompilerConfig) { c.executableName = &name }
}

// WithOptions sets the option arguments passed verbatim to the toolchain.
func WithOptions(opts ...string) CompilerOption {
	return func(c *CompilerConfig) {
		c.options = cloneStrings(opts)
		if c.options == nil {
			c.options = []string{}
		}
		c.hasOptions = true
	}
}

// NewCompilerConfig builds a CompilerConfig from the given options. Fields
// that no option sets stay unset.
func NewCompilerConfig(opts ...CompilerOption) (CompilerConfig, error) {
	var c CompilerConfig
	for _, opt := range opts {
		opt(&c)
	}
	if err := c.validate(); err != nil {
		return CompilerConfig{}, err
	}
	return c, nil
}

func (c CompilerConfig) validate() error {
	strs := []struct {
		field string
		value *string
	}{
		{"base", c.base},
		{"include_flag", c.includeFlag},
		{"executable_name", c.executableName},
	}
	for _, s := range strs {
		if s.value == nil {
			continue
		}
		if err := requireName(*s.value); err != nil {
			return &InvalidConfigError{Field: s.field, Reason: err.Error()}
		}
	}
	if err := requirePaths(c.includes); err != nil {
		return &InvalidConfigError{Field: "includes", Reason: err.Error()}
	}
	for i, o := range c.options {
		if o == "" {
			return &InvalidConfigError{Field: "options", Reason: fmt.Sprintf("element %d must be a non-empty string", i)}
		}
	}
	return nil
}

// Base returns the toolchain base directory and whether it is set.
func (c CompilerConfig) Base() (string, bool) { return deref(c.base) }

// IncludeFlag returns the include flag and whether it is set.
func (c CompilerConfig) IncludeFlag() (string, bool) { return deref(c.includeFlag) }

// ExecutableName returns the executable name and whether it is set.
func (c CompilerConfig) ExecutableName() (string, bool) { return deref(c.executableName) }

// Includes returns a copy of the include paths and whether they are set.
func (c CompilerConfig) Includes() ([]string, bool) {
	return cloneStrings(c.includes), c.hasIncludes
}

// Options returns a copy of the option list and whether it is set.
func (c CompilerConfig) Options() ([]string, bool) {
	return cloneStrings(c.options), c.hasOptions
}

// IsZero reports whether no field is set.
func (c CompilerConfig) IsZero() bool {
	return c.base == nil && c.includeFlag == nil && c.executableName == nil && !c.hasIncludes && !c.hasOptions
}

// OverrideWith returns c with every field set in other taking precedence.
// A field set on both sides produces one ConfigOverrideWarning. Neither c nor
// other is modified.
func (c CompilerConfig) OverrideWith(other CompilerConfig) (CompilerConfig, []ConfigOverrideWarning) {
	merged := c
	merged.includes = cloneStrings(c.includes)
	merged.options = cloneStrings(c.options)

	var warnings []ConfigOverrideWarning
	overrideString := func(field string, dst **string, src *string) {
		if src == nil {
			return
		}
		if *dst != nil {
			warnings = append(warnings, ConfigOverrideWarning{Field: field, Previous: **dst, Current: *src})
		}
		v := *src
		*dst = &v
	}
	overrideList := func(field string, dst *[]string, dstSet *bool, src []string, srcSet bool) {
		if !srcSet {
			return
		}
		if *dstSet {
			warnings = append(warnings, ConfigOverrideWarning{Field: field, Previous: formatList(*dst), Current: formatList(src)})
		}
		*dst = cloneStrings(src)
		*dstSet = true
	}

	overrideString("base", &merged.base, other.base)
	overrideList("includes", &merged.includes, &merged.hasIncludes, other.includes, other.hasIncludes)
	overrideString("include_flag", &merged.includeFlag, other.includeFlag)
	overrideString("executable_name", &merged.executableName, other.executableName)
	overrideList("options", &merged.options, &merged.hasOptions, other.options, other.hasOptions)

	return merged, warnings
}

// AssembleIncludeArgs emits the include flag followed by each include path,
// in include order.
func (c CompilerConfig) AssembleIncludeArgs() ([]string, error) {
	if len(c.includes) == 0 {
		return []string{}, nil
	}
	if c.includeFlag == nil {
		return nil, &IncompleteConfigError{Field: "include_flag"}
	}
	args := make([]string, 0, 2*len(c.includes))
	for _, inc := range c.includes {
		args = append(args, *c.includeFlag, inc)
	}
	return args, nil
}

// AssembleOptionArgs returns the option list verbatim, or an empty list when
// options are unset.
func (c CompilerConfig) AssembleOptionArgs() []string {
	if c.options == nil {
		return []string{}
	}
	return cloneStrings(c.options)
}

func deref(s *string) (string, bool) {
	if s == nil {
		return "", false
	}
	return *s, true
}

func formatList(l []string) string {
	return "[" + strings.Join(l, " ") + "]"
}
