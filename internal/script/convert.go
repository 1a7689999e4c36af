package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// toValue converts a scalar Lua value to the Go value stored in state
// objects. Tables and functions are rejected so records never alias
// mutable Lua data.
func toValue(lv lua.LValue) (any, error) {
	switch v := lv.(type) {
	case *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		return float64(v), nil
	case lua.LString:
		return string(v), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, lv.Type())
	}
}

// fromValue converts a stored Go value back to Lua.
func fromValue(v any) lua.LValue {
	switch v := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(v)
	case float64:
		return lua.LNumber(v)
	case int:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	default:
		return lua.LString(fmt.Sprint(v))
	}
}

// toItems converts the array part of tbl.
func toItems(tbl *lua.LTable) ([]any, error) {
	n := tbl.Len()
	items := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		v, err := toValue(tbl.RawGetInt(i))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, v)
	}
	return items, nil
}

// toEntries converts a table with string keys.
func toEntries(tbl *lua.LTable) (map[string]any, error) {
	entries := make(map[string]any)
	var err error
	tbl.ForEach(func(k, lv lua.LValue) {
		if err != nil {
			return
		}
		key, ok := k.(lua.LString)
		if !ok {
			err = fmt.Errorf("%w: key of type %s", ErrUnsupportedValue, k.Type())
			return
		}
		v, verr := toValue(lv)
		if verr != nil {
			err = fmt.Errorf("key %q: %w", string(key), verr)
			return
		}
		entries[string(key)] = v
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func itemsTable(L *lua.LState, items []any) *lua.LTable {
	tbl := L.CreateTable(len(items), 0)
	for _, v := range items {
		tbl.Append(fromValue(v))
	}
	return tbl
}

func entriesTable(L *lua.LState, entries map[string]any) *lua.LTable {
	tbl := L.CreateTable(0, len(entries))
	for k, v := range entries {
		tbl.RawSetString(k, fromValue(v))
	}
	return tbl
}
