package client

import (
	"context"
	"fmt"
	"reflect"

	"github.com/luocfprime/labtasker/internal/model"
)

var ctxType = reflect.TypeOf((*context.Context)(nil)).Elem()

// RequiredParam marks a job-function parameter as sourced from the
// fetched task's args rather than supplied by the caller (§4.6
// "argument markers"). Go's reflect package cannot recover a function's
// parameter names, so unlike the Python original's Required(...)
// default-value annotation, the alias must always be given explicitly
// here; callers build the positional Param list themselves instead of
// the runner inspecting fn's signature.
type RequiredParam struct {
	// Alias is the dotted path read from the fetched task's args.
	Alias string
	// Resolver transforms the raw resolved value before the call. If
	// nil, the value is passed through as its native Go type.
	Resolver func(model.Value) (interface{}, error)
}

// Param is one positional argument to a job function registered with
// Loop: either a literal value or a RequiredParam sourced from the
// task.
type Param struct {
	Value interface{}
	Req   *RequiredParam
}

// Literal wraps a plain Go value as a passthrough argument.
func Literal(v interface{}) Param { return Param{Value: v} }

// Require marks an argument as sourced from task.args at alias,
// optionally transformed by resolver.
func Require(alias string, resolver func(model.Value) (interface{}, error)) Param {
	return Param{Req: &RequiredParam{Alias: alias, Resolver: resolver}}
}

// requiredPaths returns the dotted paths a Param list needs present in
// task.args, used to build required_fields automatically. A
// RequiredParam with an empty alias requests the whole args document
// (GetPath treats "" as the root) and names no individual field, so it
// contributes nothing here.
func requiredPaths(params []Param) []string {
	var paths []string
	for _, p := range params {
		if p.Req != nil && p.Req.Alias != "" {
			paths = append(paths, p.Req.Alias)
		}
	}
	return paths
}

// resolveArgs builds fn's call arguments from params against the
// fetched task's args, left to right (§4.6 step 5). If fn's first
// declared parameter is a context.Context, it is bound automatically to
// ctx and consumes no entry from params (the Go convention of taking a
// context as the first argument, standing in for the ambient task info
// TaskInfoFromContext otherwise exposes). Required parameters missing
// from args, or whose resolver fails, are reported as an error; a
// resolved value that cannot be used (or converted) as the function's
// declared parameter type is also an error.
func resolveArgs(fnType reflect.Type, params []Param, args model.Value, ctx context.Context) ([]reflect.Value, error) {
	offset := 0
	if fnType.NumIn() > 0 && fnType.In(0) == ctxType {
		offset = 1
	}

	variadic := fnType.IsVariadic()
	fixed := fnType.NumIn() - offset
	if variadic {
		fixed--
	}
	if (!variadic && len(params) != fnType.NumIn()-offset) || (variadic && len(params) < fixed) {
		return nil, fmt.Errorf("client: job function expects %d argument(s), got %d", fnType.NumIn()-offset, len(params))
	}

	out := make([]reflect.Value, len(params)+offset)
	if offset == 1 {
		out[0] = reflect.ValueOf(ctx)
	}

	for i, p := range params {
		paramType := fnType.In(i + offset)
		if variadic && i >= fixed {
			paramType = fnType.In(fnType.NumIn() - 1).Elem()
		}

		val, err := resolveOne(p, args)
		if err != nil {
			return nil, fmt.Errorf("client: argument %d: %w", i, err)
		}

		rv := reflect.ValueOf(val)
		switch {
		case val == nil:
			rv = reflect.Zero(paramType)
		case rv.Type().AssignableTo(paramType):
			// use rv as-is
		case rv.Type().ConvertibleTo(paramType):
			rv = rv.Convert(paramType)
		default:
			return nil, fmt.Errorf("client: argument %d: cannot use %s as %s", i, rv.Type(), paramType)
		}
		out[i+offset] = rv
	}
	return out, nil
}

func resolveOne(p Param, args model.Value) (interface{}, error) {
	if p.Req == nil {
		return p.Value, nil
	}

	leaf, ok := model.GetPath(args, p.Req.Alias)
	if !ok || leaf.IsNull() {
		return nil, fmt.Errorf("required field %q missing from task args", p.Req.Alias)
	}
	if p.Req.Resolver == nil {
		return leaf.ToAny(), nil
	}
	resolved, err := p.Req.Resolver(leaf)
	if err != nil {
		return nil, fmt.Errorf("resolver for %q failed: %w", p.Req.Alias, err)
	}
	return resolved, nil
}
