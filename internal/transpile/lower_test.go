package transpile

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/luocfprime/labtasker/internal/model"
)

func mustCompile(pattern string) *regexp.Regexp {
	return regexp.MustCompile(pattern)
}

func doc(m map[string]interface{}) model.Value {
	v, err := model.FromAny(m)
	if err != nil {
		panic(err)
	}
	return v
}

// evalFilter is a small pure-Go evaluator for the bson.M subset this
// package emits ($and, $or, $eq, $lt, $lte, $gt, $gte, $in,
// $regex, $exists, $expr with $add/$subtract/$multiply/$divide/$mod).
// It exists only so the round-trip property can be checked without a
// live MongoDB instance.
func evalFilter(filter map[string]interface{}, d model.Value) bool {
	return evalAny(filter, d)
}

func evalAny(filter interface{}, d model.Value) bool {
	m, ok := asMap(filter)
	if !ok {
		return false
	}
	for k, v := range m {
		switch k {
		case "$and":
			for _, sub := range v.([]interface{}) {
				if !evalAny(sub, d) {
					return false
				}
			}
			continue
		case "$or":
			any := false
			for _, sub := range v.([]interface{}) {
				if evalAny(sub, d) {
					any = true
					break
				}
			}
			if !any {
				return false
			}
			continue
		case "$expr":
			if !evalExpr(v, d) {
				return false
			}
			continue
		}
		// field condition
		val, ok := model.GetPath(d, k)
		cond, _ := asMap(v)
		if !evalFieldCond(val, ok, cond) {
			return false
		}
	}
	return true
}

func evalFieldCond(val model.Value, found bool, cond map[string]interface{}) bool {
	for op, arg := range cond {
		switch op {
		case "$eq":
			if !found || !looseEqual(val.ToAny(), arg) {
				return false
			}
		case "$ne":
			if found && looseEqual(val.ToAny(), arg) {
				return false
			}
		case "$lt", "$lte", "$gt", "$gte":
			if !found {
				return false
			}
			if !numericCompare(val.ToAny(), arg, op) {
				return false
			}
		case "$in":
			if !found {
				return false
			}
			list := arg.([]interface{})
			hit := false
			for _, item := range list {
				if looseEqual(item, val.ToAny()) {
					hit = true
					break
				}
			}
			if !hit {
				return false
			}
		case "$exists":
			want := arg.(bool)
			if found != want {
				return false
			}
		case "$regex":
			if !found || val.Kind != model.KindString {
				return false
			}
			if !regexLikeMatch(arg.(string), val.S) {
				return false
			}
		}
	}
	return true
}

func looseEqual(a, b interface{}) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok && bok {
		return af == bf
	}
	return a == b
}

func asMap(v interface{}) (map[string]interface{}, bool) {
	switch x := v.(type) {
	case map[string]interface{}:
		return x, true
	case bson.M:
		return map[string]interface{}(x), true
	default:
		return nil, false
	}
}

func numericCompare(a, b interface{}, op string) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if !aok || !bok {
		return false
	}
	switch op {
	case "$lt":
		return af < bf
	case "$lte":
		return af <= bf
	case "$gt":
		return af > bf
	case "$gte":
		return af >= bf
	}
	return false
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func evalExpr(e interface{}, d model.Value) bool {
	m, ok := asMap(e)
	if !ok {
		return false
	}
	for op, args := range m {
		arr := args.([]interface{})
		l := evalArith(arr[0], d)
		r := evalArith(arr[1], d)
		if l == nil || r == nil {
			return false
		}
		lf, _ := toFloat(l)
		rf, _ := toFloat(r)
		switch op {
		case "$eq":
			return lf == rf
		case "$ne":
			return lf != rf
		case "$lt":
			return lf < rf
		case "$lte":
			return lf <= rf
		case "$gt":
			return lf > rf
		case "$gte":
			return lf >= rf
		}
	}
	return false
}

func evalArith(e interface{}, d model.Value) interface{} {
	switch x := e.(type) {
	case string:
		if len(x) > 0 && x[0] == '$' {
			v, ok := model.GetPath(d, x[1:])
			if !ok {
				return nil
			}
			return v.ToAny()
		}
		return x
	case map[string]interface{}, bson.M:
		m, _ := asMap(x)
		for op, argsAny := range m {
			args := argsAny.([]interface{})
			l := evalArith(args[0], d)
			r := evalArith(args[1], d)
			if l == nil || r == nil {
				return nil
			}
			lf, _ := toFloat(l)
			rf, _ := toFloat(r)
			switch op {
			case "$add":
				return lf + rf
			case "$subtract":
				return lf - rf
			case "$multiply":
				return lf * rf
			case "$divide":
				return lf / rf
			case "$mod":
				return float64(int64(lf) % int64(rf))
			}
		}
		return nil
	default:
		return x
	}
}

func regexLikeMatch(pattern, s string) bool {
	// Compiles pattern with Go's regexp package and reports whether it
	// matches anywhere in s.
	re := mustCompile(pattern)
	return re.MatchString(s)
}

func TestTranspileS6Scenario(t *testing.T) {
	filter, err := Transpile(`args.foo + args.bar == 15 and regex(args.text, '.*results!$')`)
	require.NoError(t, err)

	d := doc(map[string]interface{}{
		"args": map[string]interface{}{"foo": 5.0, "bar": 10.0, "text": "bad results!"},
	})
	assert.True(t, evalFilter(filter, d))

	notMatching := doc(map[string]interface{}{
		"args": map[string]interface{}{"foo": 5.0, "bar": 9.0, "text": "bad results!"},
	})
	assert.False(t, evalFilter(filter, notMatching))
}

func TestTranspileRoundTrip(t *testing.T) {
	corpus := []model.Value{
		doc(map[string]interface{}{"a": 1.0, "b": "x", "c": map[string]interface{}{"d": 5.0}}),
		doc(map[string]interface{}{"a": 2.0, "b": "y", "c": map[string]interface{}{"d": 10.0}}),
		doc(map[string]interface{}{"a": 3.0, "b": "xyz"}),
	}

	cases := []struct {
		expr    string
		matches []int
	}{
		{"a == 1", []int{0}},
		{"a < 3", []int{0, 1}},
		{"a <= 2", []int{0, 1}},
		{"a > 1", []int{1, 2}},
		{"a >= 2", []int{1, 2}},
		{"a in [1, 3]", []int{0, 2}},
		{"b == 'x'", []int{0}},
		{"regex(b, '^x')", []int{0, 2}},
		{"exists(c)", []int{0, 1}},
		{"exists(c, False)", []int{2}},
		{"c.d == 5", []int{0}},
		{"a == 1 or a == 3", []int{0, 2}},
		{"a > 0 and b == 'y'", []int{1}},
		{"(a == 1 or a == 2) and a < 2", []int{0}},
		{"c.d + 1 == 6", []int{0}},
		{"c.d - 5 == 0", []int{0}},
		{"c.d * 2 == 20", []int{1}},
		{"c.d / 2 == 5", []int{1}},
		{"c.d % 4 == 1", []int{0}},
		{"a == 1.0", []int{0}},
		{"a == 2 or a == 3 or a == 99", []int{1, 2}},
	}

	for _, tc := range cases {
		t.Run(tc.expr, func(t *testing.T) {
			filter, err := Transpile(tc.expr)
			require.NoError(t, err, tc.expr)
			var got []int
			for i, d := range corpus {
				if evalFilter(filter, d) {
					got = append(got, i)
				}
			}
			assert.ElementsMatch(t, tc.matches, got, tc.expr)
		})
	}
}

func TestTranspileRejectsNot(t *testing.T) {
	_, err := Transpile("not a == 1")
	require.Error(t, err)
	var ve *ValueError
	assert.ErrorAs(t, err, &ve)
}

func TestTranspileRejectsNotEqual(t *testing.T) {
	// "!=" is ambiguous once null/missing fields enter the picture, so it
	// is dropped from the comparison grammar rather than lowered to $ne.
	_, err := Transpile("a != 1")
	require.Error(t, err)
}

func TestTranspileRejectsChainedComparison(t *testing.T) {
	_, err := Transpile("a < b < c")
	require.Error(t, err)
	var se *SyntaxError
	assert.ErrorAs(t, err, &se)
}

func TestTranspileRejectsBareIdentifier(t *testing.T) {
	_, err := Transpile("a")
	require.Error(t, err)
}

func TestTranspileRejectsEmptyInput(t *testing.T) {
	_, err := Transpile("")
	require.Error(t, err)
}

func TestTranspileRejectsUnknownFunction(t *testing.T) {
	_, err := Transpile("foo(a)")
	require.Error(t, err)
}
