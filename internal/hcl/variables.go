package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/specialistvlad/coregrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// variable is a declared input after its type has been resolved.
type variable struct {
	Name        string
	Type        cty.Type
	Default     *cty.Value
	Description string
	DeclRange   hcl.Range
}

var variableSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "variable", LabelNames: []string{"name"}},
	},
}

// extractVariables splits the variable blocks off body and returns the rest.
func extractVariables(body hcl.Body) ([]*variable, hcl.Body, hcl.Diagnostics) {
	content, remain, diags := body.PartialContent(variableSchema)
	if diags.HasErrors() {
		return nil, nil, diags
	}

	vars := make([]*variable, 0, len(content.Blocks))
	for _, block := range content.Blocks {
		var raw variableBlock
		decodeDiags := gohcl.DecodeBody(block.Body, nil, &raw)
		diags = append(diags, decodeDiags...)
		if decodeDiags.HasErrors() {
			continue
		}

		ty, typeDiags := typeConstraint(raw.Type)
		diags = append(diags, typeDiags...)
		if typeDiags.HasErrors() {
			continue
		}

		v := &variable{
			Name:        block.Labels[0],
			Type:        ty,
			Description: raw.Description,
			DeclRange:   block.DefRange,
		}
		if raw.Default != nil && !raw.Default.IsNull() {
			converted, err := convert.Convert(*raw.Default, ty)
			if err != nil {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid default value for variable",
					Detail:   fmt.Sprintf("Variable %q: %s.", v.Name, err),
					Subject:  &block.DefRange,
				})
				continue
			}
			v.Default = &converted
		}
		vars = append(vars, v)
	}
	return vars, remain, diags
}

// typeConstraint parses a type expression such as `string` or
// `list(number)`. An absent expression means any type.
func typeConstraint(expr hcl.Expression) (cty.Type, hcl.Diagnostics) {
	if expr == nil {
		return cty.DynamicPseudoType, nil
	}
	if val, diags := expr.Value(nil); !diags.HasErrors() && val.IsNull() {
		return cty.DynamicPseudoType, nil
	}
	return typeexpr.TypeConstraint(expr)
}

// evalContext resolves every declared variable from overrides or its
// default and returns the context used to decode the rest of the topology.
func evalContext(ctx context.Context, vars []*variable, overrides map[string]string) (*hcl.EvalContext, error) {
	logger := ctxlog.FromContext(ctx)

	declared := make(map[string]*variable, len(vars))
	for _, v := range vars {
		if prev, dup := declared[v.Name]; dup {
			return nil, fmt.Errorf("variable %q declared twice: %s and %s", v.Name, prev.DeclRange, v.DeclRange)
		}
		declared[v.Name] = v
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := declared[name]; !ok {
			return nil, fmt.Errorf("value given for undeclared variable %q", name)
		}
	}

	values := make(map[string]cty.Value, len(vars))
	for _, v := range vars {
		if raw, ok := overrides[v.Name]; ok {
			val, err := convert.Convert(cty.StringVal(raw), v.Type)
			if err != nil {
				return nil, fmt.Errorf("variable %q: cannot use %q as %s: %w", v.Name, raw, v.Type.FriendlyName(), err)
			}
			logger.Debug("Variable set from override.", "variable", v.Name, "type", v.Type.FriendlyName())
			values[v.Name] = val
			continue
		}
		if v.Default == nil {
			return nil, fmt.Errorf("variable %q has no default and no value was given (%s)", v.Name, v.DeclRange)
		}
		values[v.Name] = *v.Default
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"var": cty.ObjectVal(values),
		},
		Functions: functions(),
	}, nil
}

// functions are the cty standard library functions available in topology
// files.
func functions() map[string]function.Function {
	return map[string]function.Function{
		"concat":    stdlib.ConcatFunc,
		"format":    stdlib.FormatFunc,
		"join":      stdlib.JoinFunc,
		"length":    stdlib.LengthFunc,
		"lower":     stdlib.LowerFunc,
		"max":       stdlib.MaxFunc,
		"min":       stdlib.MinFunc,
		"trimspace": stdlib.TrimSpaceFunc,
		"upper":     stdlib.UpperFunc,
	}
}
