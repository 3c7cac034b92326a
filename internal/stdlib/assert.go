// assert.go wires std.test.* — the scripting surface SPEC_FULL.md's test
// tooling section expects every assertion helper a test script needs.
// Grounded on sentra's internal/testing/simple_module.go (superseded by
// this file), rebuilt against the Value/Reference model instead of the
// old tree-walking VM's interface{} values and Go-native error returns.
package stdlib

import (
	"fmt"
	"os"
	"strings"

	"asteria/internal/runtime"
	"asteria/internal/value"
)

// testCounters is process-global because std.test.summary is meant to be
// called once, at the end of a script's run, after every assertion in
// that run has already updated it — matching simple_module.go's package-
// level tallying.
type testCounters struct {
	passed, failed int
}

var counters testCounters

// RegisterTest installs std.test.* into g.
func RegisterTest(g *runtime.GlobalContext) {
	g.RegisterNative("std.test.assert", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert", testAssert)))
	g.RegisterNative("std.test.assert_equal", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_equal", testAssertEqual)))
	g.RegisterNative("std.test.assert_not_equal", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_not_equal", testAssertNotEqual)))
	g.RegisterNative("std.test.assert_true", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_true", testAssertTrue)))
	g.RegisterNative("std.test.assert_false", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_false", testAssertFalse)))
	g.RegisterNative("std.test.assert_nil", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_nil", testAssertNil)))
	g.RegisterNative("std.test.assert_not_nil", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_not_nil", testAssertNotNil)))
	g.RegisterNative("std.test.assert_contains", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.assert_contains", testAssertContains)))
	g.RegisterNative("std.test.summary", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.test.summary", testSummary)))
}

func msgArg(args []value.Value, i int) string {
	if i >= len(args) {
		return ""
	}
	return value.ToDisplayString(args[i])
}

func testAssert(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 1 {
		return value.Null, runtime.Format("`std.test.assert` expects at least 1 argument")
	}
	if !args[0].Truthy() {
		counters.failed++
		return value.Null, runtime.Format("assertion failed: %s", msgArg(args, 1))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertEqual(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 2 {
		return value.Null, runtime.Format("`std.test.assert_equal` expects at least 2 arguments")
	}
	if !value.Equal(args[0], args[1]) {
		counters.failed++
		return value.Null, runtime.Format("assert_equal failed: %s — expected %s, got %s",
			msgArg(args, 2), value.ToDisplayString(args[0]), value.ToDisplayString(args[1]))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertNotEqual(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 2 {
		return value.Null, runtime.Format("`std.test.assert_not_equal` expects at least 2 arguments")
	}
	if value.Equal(args[0], args[1]) {
		counters.failed++
		return value.Null, runtime.Format("assert_not_equal failed: %s — values are equal (%s)",
			msgArg(args, 2), value.ToDisplayString(args[0]))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertTrue(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 1 {
		return value.Null, runtime.Format("`std.test.assert_true` expects at least 1 argument")
	}
	if !args[0].Truthy() {
		counters.failed++
		return value.Null, runtime.Format("assert_true failed: %s", msgArg(args, 1))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertFalse(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 1 {
		return value.Null, runtime.Format("`std.test.assert_false` expects at least 1 argument")
	}
	if args[0].Truthy() {
		counters.failed++
		return value.Null, runtime.Format("assert_false failed: %s", msgArg(args, 1))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertNil(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 1 {
		return value.Null, runtime.Format("`std.test.assert_nil` expects at least 1 argument")
	}
	if !args[0].IsNull() {
		counters.failed++
		return value.Null, runtime.Format("assert_nil failed: %s — value is %s", msgArg(args, 1), value.ToDisplayString(args[0]))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertNotNil(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 1 {
		return value.Null, runtime.Format("`std.test.assert_not_nil` expects at least 1 argument")
	}
	if args[0].IsNull() {
		counters.failed++
		return value.Null, runtime.Format("assert_not_nil failed: %s", msgArg(args, 1))
	}
	counters.passed++
	return value.NewBoolean(true), nil
}

func testAssertContains(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) < 2 {
		return value.Null, runtime.Format("`std.test.assert_contains` expects at least 2 arguments")
	}
	container, item := args[0], args[1]
	switch container.Kind() {
	case value.Array:
		for _, elem := range container.AsArray().Elements {
			if value.Equal(elem, item) {
				counters.passed++
				return value.NewBoolean(true), nil
			}
		}
		counters.failed++
		return value.Null, runtime.Format("assert_contains failed: %s — array does not contain %s",
			msgArg(args, 2), value.ToDisplayString(item))
	case value.String:
		if strings.Contains(container.AsString().String(), value.ToDisplayString(item)) {
			counters.passed++
			return value.NewBoolean(true), nil
		}
		counters.failed++
		return value.Null, runtime.Format("assert_contains failed: %s — string does not contain %q",
			msgArg(args, 2), value.ToDisplayString(item))
	default:
		counters.failed++
		return value.Null, runtime.Format("assert_contains: unsupported container type %s", container.TypeName())
	}
}

func testSummary(args []value.Value) (value.Value, *runtime.RuntimeError) {
	total := counters.passed + counters.failed
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 60))
	fmt.Fprintf(os.Stderr, "Test Results Summary\n")
	fmt.Fprintln(os.Stderr, strings.Repeat("=", 60))
	fmt.Fprintf(os.Stderr, "Total Tests:    %d\n", total)
	fmt.Fprintf(os.Stderr, "Passed:         %d\n", counters.passed)
	if counters.failed > 0 {
		fmt.Fprintf(os.Stderr, "Failed:         %d\n", counters.failed)
	}

	od := value.NewObjectData()
	od.Retain()
	od.Set("total", value.NewInteger(int64(total)))
	od.Set("passed", value.NewInteger(int64(counters.passed)))
	od.Set("failed", value.NewInteger(int64(counters.failed)))
	od.Set("success", value.NewBoolean(counters.failed == 0))
	return value.NewObject(od), nil
}
