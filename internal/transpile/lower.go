package transpile

import (
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/luocfprime/labtasker/internal/model"
)

// Transpile parses src and lowers it to a backend (MongoDB) filter
// document. This is the package's public entry point; the fetch
// handler uses it to lower a request's extra_filter before passing the
// result to the storage engine.
func Transpile(src string) (bson.M, error) {
	expr, err := Parse(src)
	if err != nil {
		return nil, err
	}
	switch expr.(type) {
	case FieldRef, Literal, Arith:
		return nil, valueErrorf("expression does not produce a filter (bare identifier or literal)")
	}
	return lower(expr)
}

func lower(e Expr) (bson.M, error) {
	switch x := e.(type) {
	case Logical:
		parts := make([]interface{}, 0, len(x.Operands))
		for _, op := range x.Operands {
			m, err := lower(op)
			if err != nil {
				return nil, err
			}
			parts = append(parts, m)
		}
		key := "$and"
		if x.Op == "or" {
			key = "$or"
		}
		return bson.M{key: parts}, nil
	case Comparison:
		return lowerComparison(x)
	case Call:
		return lowerCall(x)
	default:
		return nil, valueErrorf("expression is not a valid filter")
	}
}

func lowerComparison(c Comparison) (bson.M, error) {
	leftField, leftIsField := c.Left.(FieldRef)
	rightField, rightIsField := c.Right.(FieldRef)
	leftLit, leftIsLit := c.Left.(Literal)
	rightLit, rightIsLit := c.Right.(Literal)

	simple := (leftIsField && rightIsLit) || (rightIsField && leftIsLit)
	if simple && c.Op != "in" {
		var field string
		var lit Literal
		var op string
		if leftIsField {
			field, lit, op = leftField.Path, rightLit, c.Op
		} else {
			field, lit, op = rightField.Path, leftLit, flipOp(c.Op)
		}
		return bson.M{field: bson.M{mongoOp(op): lit.Value.ToAny()}}, nil
	}
	if c.Op == "in" {
		if !leftIsField {
			return nil, valueErrorf("'in' requires a field reference on the left")
		}
		if !rightIsLit || rightLit.Value.Kind != model.KindList {
			return nil, valueErrorf("'in' requires a list literal on the right")
		}
		return bson.M{leftField.Path: bson.M{"$in": rightLit.Value.ToAny()}}, nil
	}

	// At least one side uses arithmetic: lower to $expr with $exists
	// guards for every field referenced, so missing fields never match.
	fields := map[string]bool{}
	collectFields(c.Left, fields)
	collectFields(c.Right, fields)
	if len(fields) == 0 {
		return nil, valueErrorf("arithmetic comparison must reference at least one field")
	}

	lhs, err := lowerArith(c.Left)
	if err != nil {
		return nil, err
	}
	rhs, err := lowerArith(c.Right)
	if err != nil {
		return nil, err
	}

	guards := make([]interface{}, 0, len(fields)+1)
	for f := range fields {
		guards = append(guards, bson.M{f: bson.M{"$exists": true}})
	}
	exprOp, err := mongoExprOp(c.Op)
	if err != nil {
		return nil, err
	}
	guards = append(guards, bson.M{"$expr": bson.M{exprOp: []interface{}{lhs, rhs}}})
	return bson.M{"$and": guards}, nil
}

func lowerCall(c Call) (bson.M, error) {
	field, ok := c.Args[0].(FieldRef)
	if !ok {
		return nil, valueErrorf("%s() first argument must be a field reference", c.Name)
	}
	switch c.Name {
	case "regex":
		pattern, ok := c.Args[1].(Literal)
		if !ok || pattern.Value.Kind != model.KindString {
			return nil, valueErrorf("regex() second argument must be a string literal")
		}
		return bson.M{field.Path: bson.M{"$regex": pattern.Value.S}}, nil
	case "exists":
		present := true
		if len(c.Args) == 2 {
			lit, ok := c.Args[1].(Literal)
			if !ok || lit.Value.Kind != model.KindBool {
				return nil, valueErrorf("exists() second argument must be a bool literal")
			}
			present = lit.Value.B
		}
		return bson.M{field.Path: bson.M{"$exists": present}}, nil
	default:
		return nil, valueErrorf("unknown function %q", c.Name)
	}
}

func lowerArith(e Expr) (interface{}, error) {
	switch x := e.(type) {
	case FieldRef:
		return "$" + x.Path, nil
	case Literal:
		return x.Value.ToAny(), nil
	case Arith:
		l, err := lowerArith(x.Left)
		if err != nil {
			return nil, err
		}
		r, err := lowerArith(x.Right)
		if err != nil {
			return nil, err
		}
		op, err := mongoArithOp(x.Op)
		if err != nil {
			return nil, err
		}
		return bson.M{op: []interface{}{l, r}}, nil
	default:
		return nil, valueErrorf("unsupported arithmetic operand")
	}
}

func collectFields(e Expr, out map[string]bool) {
	switch x := e.(type) {
	case FieldRef:
		out[x.Path] = true
	case Arith:
		collectFields(x.Left, out)
		collectFields(x.Right, out)
	}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case "<=":
		return ">="
	case ">":
		return "<"
	case ">=":
		return "<="
	default:
		return op
	}
}

func mongoOp(op string) string {
	switch op {
	case "==":
		return "$eq"
	case "<":
		return "$lt"
	case "<=":
		return "$lte"
	case ">":
		return "$gt"
	case ">=":
		return "$gte"
	default:
		return "$eq"
	}
}

func mongoExprOp(op string) (string, error) {
	switch op {
	case "==":
		return "$eq", nil
	case "<":
		return "$lt", nil
	case "<=":
		return "$lte", nil
	case ">":
		return "$gt", nil
	case ">=":
		return "$gte", nil
	default:
		return "", valueErrorf("operator %q is not supported in arithmetic comparisons", op)
	}
}

func mongoArithOp(op string) (string, error) {
	switch op {
	case "+":
		return "$add", nil
	case "-":
		return "$subtract", nil
	case "*":
		return "$multiply", nil
	case "/":
		return "$divide", nil
	case "%":
		return "$mod", nil
	default:
		return "", valueErrorf("unknown arithmetic operator %q", op)
	}
}
