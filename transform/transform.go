package transform

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pelletier/go-toml/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/module-loader/extension"
)

// Data pairs an extension with its transform.
type Data struct {
	Ext       string
	Transform extension.Transform
}

// Defaults lists the data transforms in registration order.
func Defaults() []Data {
	return []Data{
		{".json", extension.TransformFunc(JSON)},
		{".toml", extension.TransformFunc(TOML)},
		{".yaml", extension.TransformFunc(YAML)},
		{".yml", extension.TransformFunc(YAML)},
		{".hcl", extension.TransformFunc(HCL)},
		{".cue", extension.TransformFunc(CUE)},
	}
}

// RegisterDefaults registers every default data transform on reg.
func RegisterDefaults(reg *extension.Registry) error {
	for _, d := range Defaults() {
		if err := reg.Register(d.Ext, d.Transform); err != nil {
			return err
		}
	}
	return nil
}

// JSON decodes a JSON document.
func JSON(content []byte) (extension.Result, error) {
	var v any
	if err := json.Unmarshal(content, &v); err != nil {
		return extension.Result{}, fmt.Errorf("decode json: %w", err)
	}
	return extension.Value(v), nil
}

// TOML decodes a TOML document into a table.
func TOML(content []byte) (extension.Result, error) {
	v := map[string]any{}
	if err := toml.Unmarshal(content, &v); err != nil {
		return extension.Result{}, fmt.Errorf("decode toml: %w", err)
	}
	return extension.Value(v), nil
}

// YAML decodes a single YAML document.
func YAML(content []byte) (extension.Result, error) {
	var v any
	if err := yaml.Unmarshal(content, &v); err != nil {
		return extension.Result{}, fmt.Errorf("decode yaml: %w", err)
	}
	return extension.Value(v), nil
}

// HCL evaluates the top-level attributes of an HCL body. Blocks are not
// allowed and expressions see no variables.
func HCL(content []byte) (extension.Result, error) {
	file, diags := hclsyntax.ParseConfig(content, "module.hcl", hcl.InitialPos)
	if diags.HasErrors() {
		return extension.Result{}, fmt.Errorf("parse hcl: %s", diags.Error())
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return extension.Result{}, fmt.Errorf("parse hcl: %s", diags.Error())
	}

	out := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return extension.Result{}, fmt.Errorf("evaluate %s: %s", name, diags.Error())
		}
		native, err := ctyToNative(val)
		if err != nil {
			return extension.Result{}, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[name] = native
	}
	return extension.Value(out), nil
}

// CUE compiles a CUE document and decodes its concrete value.
func CUE(content []byte) (extension.Result, error) {
	v := cuecontext.New().CompileBytes(content, cue.Filename("module.cue"))
	if err := v.Err(); err != nil {
		return extension.Result{}, fmt.Errorf("compile cue: %w", err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return extension.Result{}, fmt.Errorf("validate cue: %w", err)
	}
	var out any
	if err := v.Decode(&out); err != nil {
		return extension.Result{}, fmt.Errorf("decode cue: %w", err)
	}
	return extension.Value(out), nil
}

func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() || !v.IsKnown() {
		return nil, nil
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		var out []any
		for it := v.ElementIterator(); it.Next(); {
			_, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		if out == nil {
			out = []any{}
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			key, el := it.Element()
			native, err := ctyToNative(el)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", key.AsString(), err)
			}
			out[key.AsString()] = native
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
}
