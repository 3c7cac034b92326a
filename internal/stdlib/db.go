// Package stdlib implements Asteria's standard library surface: each
// file installs one std.* module's native bindings into a
// runtime.GlobalContext via the Binding Generator (runtime.NativeBinding).
//
// db.go wires std.db to internal/database's DBManager, grounded on
// sentra's original database stdlib bindings (internal/stdlib/database_funcs.go,
// superseded by this file) but rebuilt against the Value/Reference model
// instead of the old tree-walking VM's interface{} values.
package stdlib

import (
	"fmt"

	"asteria/internal/database"
	"asteria/internal/runtime"
	"asteria/internal/value"
)

var dbManager = database.NewDBManager()

// RegisterDB installs std.db.* into g.
func RegisterDB(g *runtime.GlobalContext) {
	g.RegisterNative("std.db.connect", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.connect", dbConnect)))
	g.RegisterNative("std.db.close", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.close", dbClose)))
	g.RegisterNative("std.db.close_all", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.close_all", dbCloseAll)))
	g.RegisterNative("std.db.list", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.list", dbList)))
	g.RegisterNative("std.db.query", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.query", dbQuery)))
	g.RegisterNative("std.db.query_one", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.query_one", dbQueryOne)))
	g.RegisterNative("std.db.execute", runtime.NewNativeFunctionValue(
		runtime.NewNativeValueErr("std.db.execute", dbExecute)))
	g.RegisterNative("std.db.escape", runtime.NewNativeFunctionValue(
		runtime.NewNativeValue("std.db.escape", dbEscape)))
}

func argString(args []value.Value, i int, name string) (string, *runtime.RuntimeError) {
	if i >= len(args) || args[i].Kind() != value.String {
		return "", runtime.Format("`%s` expects a string at argument %d", name, i+1)
	}
	return args[i].AsString().String(), nil
}

// std.db.connect(id, type, dsn)
func dbConnect(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if len(args) != 3 {
		return value.Null, runtime.Format("`std.db.connect` expects exactly 3 arguments")
	}
	id, err := argString(args, 0, "std.db.connect")
	if err != nil {
		return value.Null, err
	}
	dbType, err := argString(args, 1, "std.db.connect")
	if err != nil {
		return value.Null, err
	}
	dsn, err := argString(args, 2, "std.db.connect")
	if err != nil {
		return value.Null, err
	}
	if cerr := dbManager.Connect(id, dbType, dsn); cerr != nil {
		return value.Null, runtime.Format("%s", cerr.Error())
	}
	return value.NewBoolean(true), nil
}

// std.db.close(id)
func dbClose(args []value.Value) (value.Value, *runtime.RuntimeError) {
	id, err := argString(args, 0, "std.db.close")
	if err != nil {
		return value.Null, err
	}
	if cerr := dbManager.Close(id); cerr != nil {
		return value.Null, runtime.Format("%s", cerr.Error())
	}
	return value.NewBoolean(true), nil
}

// std.db.close_all()
func dbCloseAll(args []value.Value) (value.Value, *runtime.RuntimeError) {
	if cerr := dbManager.CloseAll(); cerr != nil {
		return value.Null, runtime.Format("%s", cerr.Error())
	}
	return value.NewBoolean(true), nil
}

// std.db.list() -> array of object { id, type }
func dbList(args []value.Value) (value.Value, *runtime.RuntimeError) {
	conns := dbManager.ListConnections()
	elems := make([]value.Value, len(conns))
	for i, c := range conns {
		elems[i] = nativeMapToObject(c)
	}
	return value.NewArray(value.NewArrayData(elems)), nil
}

// std.db.query(conn_id, query, ...args) -> array of row objects
func dbQuery(args []value.Value) (value.Value, *runtime.RuntimeError) {
	connID, query, qargs, err := dbCallArgs(args, "std.db.query")
	if err != nil {
		return value.Null, err
	}
	rows, qerr := dbManager.Query(connID, query, qargs...)
	if qerr != nil {
		return value.Null, runtime.Format("%s", qerr.Error())
	}
	elems := make([]value.Value, len(rows))
	for i, row := range rows {
		elems[i] = nativeMapToObject(row)
	}
	return value.NewArray(value.NewArrayData(elems)), nil
}

// std.db.query_one(conn_id, query, ...args) -> object or null
func dbQueryOne(args []value.Value) (value.Value, *runtime.RuntimeError) {
	connID, query, qargs, err := dbCallArgs(args, "std.db.query_one")
	if err != nil {
		return value.Null, err
	}
	row, qerr := dbManager.QueryOne(connID, query, qargs...)
	if qerr != nil {
		if qerr.Error() == "no rows returned" {
			return value.Null, nil
		}
		return value.Null, runtime.Format("%s", qerr.Error())
	}
	return nativeMapToObject(row), nil
}

// std.db.execute(conn_id, query, ...args) -> integer rows affected
func dbExecute(args []value.Value) (value.Value, *runtime.RuntimeError) {
	connID, query, qargs, err := dbCallArgs(args, "std.db.execute")
	if err != nil {
		return value.Null, err
	}
	n, qerr := dbManager.Execute(connID, query, qargs...)
	if qerr != nil {
		return value.Null, runtime.Format("%s", qerr.Error())
	}
	return value.NewInteger(n), nil
}

func dbCallArgs(args []value.Value, name string) (string, string, []interface{}, *runtime.RuntimeError) {
	if len(args) < 2 {
		return "", "", nil, runtime.Format("`%s` expects at least 2 arguments: conn_id, query", name)
	}
	connID, err := argString(args, 0, name)
	if err != nil {
		return "", "", nil, err
	}
	query, err := argString(args, 1, name)
	if err != nil {
		return "", "", nil, err
	}
	native := make([]interface{}, 0, len(args)-2)
	for _, a := range args[2:] {
		native = append(native, scriptValueToNative(a))
	}
	return connID, query, native, nil
}

// std.db.escape(str) -> string
func dbEscape(args []value.Value) value.Value {
	if len(args) == 0 || args[0].Kind() != value.String {
		return value.NewString("")
	}
	s := args[0].AsString().String()
	var b []byte
	for _, ch := range []byte(s) {
		switch ch {
		case '\'':
			b = append(b, '\'', '\'')
		case '\\':
			b = append(b, '\\', '\\')
		default:
			b = append(b, ch)
		}
	}
	return value.NewString(string(b))
}

// scriptValueToNative converts a script Value into a driver-friendly Go
// value for use as a `database/sql` query parameter.
func scriptValueToNative(v value.Value) interface{} {
	switch v.Kind() {
	case value.Null:
		return nil
	case value.Boolean:
		return v.AsBoolean()
	case value.Integer:
		return v.AsInteger()
	case value.Real:
		return v.AsReal()
	case value.String:
		return v.AsString().String()
	default:
		return value.ToDisplayString(v)
	}
}

// nativeMapToObject converts a database/sql row map into a script object,
// keeping column order unspecified but the scalar conversions exact
// (matching the original sentra binding's type-switch, now against the
// Value union instead of interface{} duck typing).
func nativeMapToObject(row map[string]interface{}) value.Value {
	od := value.NewObjectData()
	for k, v := range row {
		od.Set(k, nativeToScriptValue(v))
	}
	return value.NewObject(od)
}

func nativeToScriptValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.NewBoolean(t)
	case string:
		return value.NewString(t)
	case []byte:
		return value.NewString(string(t))
	case int:
		return value.NewInteger(int64(t))
	case int32:
		return value.NewInteger(int64(t))
	case int64:
		return value.NewInteger(t)
	case float32:
		return value.NewReal(float64(t))
	case float64:
		return value.NewReal(t)
	default:
		return value.NewString(fmt.Sprintf("%v", t))
	}
}
