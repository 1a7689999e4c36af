package script

import (
	"log/slog"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/state"
)

// ModuleName is the global table holding the rewind API.
const ModuleName = "rewind"

type (
	cellObject = state.Cell[any]
	listObject = state.List[any]
	dictObject = state.Dict[string, any]
)

// installModule registers the rewind table.
func (r *Runtime) installModule() {
	mod := r.L.SetFuncs(r.L.NewTable(), map[string]lua.LGFunction{
		// objects
		"cell":    r.luaCell,
		"list":    r.luaList,
		"dict":    r.luaDict,
		"get":     r.luaGet,
		"set":     r.luaSet,
		"push":    r.luaPush,
		"put":     r.luaPut,
		"batch":   r.luaBatch,
		"objects": r.luaObjects,
		"drop":    r.luaDrop,

		// history
		"track":    r.luaTrack,
		"untrack":  r.luaUntrack,
		"save":     r.luaSave,
		"undo":     r.luaUndo,
		"redo":     r.luaRedo,
		"seek":     r.luaSeek,
		"frame":    r.luaFrame,
		"frames":   r.luaFrames,
		"can_undo": r.luaCanUndo,
		"can_redo": r.luaCanRedo,
		"record":   r.luaRecord,
		"stop":     r.luaStop,
	})
	r.L.SetGlobal(ModuleName, mod)
}

// rewind.cell(name, value [, track]) creates a tracked cell.
func (r *Runtime) luaCell(L *lua.LState) int {
	name := L.CheckString(1)
	v, err := toValue(L.Get(2))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	r.create(L, name, state.NewCell[any](r.store, v), L.OptBool(3, true))
	return 1
}

// rewind.list(name, items [, track]) creates a tracked list.
func (r *Runtime) luaList(L *lua.LState) int {
	name := L.CheckString(1)
	items, err := toItems(L.OptTable(2, L.NewTable()))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	r.create(L, name, state.NewList(r.store, items), L.OptBool(3, true))
	return 1
}

// rewind.dict(name, entries [, track]) creates a tracked dict.
func (r *Runtime) luaDict(L *lua.LState) int {
	name := L.CheckString(1)
	entries, err := toEntries(L.OptTable(2, L.NewTable()))
	if err != nil {
		L.ArgError(2, err.Error())
	}
	r.create(L, name, state.NewDict(r.store, entries), L.OptBool(3, true))
	return 1
}

// create labels and registers obj, then tracks it if asked. Pushes name.
func (r *Runtime) create(L *lua.LState, name string, obj state.Recordable, track bool) {
	r.checkIdle(L, "create")
	if _, exists := r.objects[name]; exists {
		L.RaiseError("object %q already exists", name)
	}

	r.store.Label(obj, name)
	r.objects[name] = obj
	if track {
		if err := r.engine.StartTracking(obj); err != nil {
			L.RaiseError("track %q: %v", name, err)
		}
	}
	r.logger.Debug("script: object created", slog.String("name", name), slog.Bool("tracked", track))
	L.Push(lua.LString(name))
}

// rewind.get(name [, key]) reads a cell value, a list item (1-based) or
// a dict entry; without a key lists and dicts are returned as tables.
func (r *Runtime) luaGet(L *lua.LState) int {
	obj := r.lookup(L, 1)
	hasKey := L.GetTop() >= 2

	switch o := obj.(type) {
	case *cellObject:
		L.Push(fromValue(o.Get()))
	case *listObject:
		if !hasKey {
			L.Push(itemsTable(L, o.Items()))
			break
		}
		v, ok := o.At(L.CheckInt(2) - 1)
		if !ok {
			L.Push(lua.LNil)
			break
		}
		L.Push(fromValue(v))
	case *dictObject:
		if !hasKey {
			L.Push(entriesTable(L, o.Entries()))
			break
		}
		v, _ := o.Get(L.CheckString(2))
		L.Push(fromValue(v))
	}
	return 1
}

// rewind.set(name, value) replaces a cell value, or the items of a list
// given a table.
func (r *Runtime) luaSet(L *lua.LState) int {
	obj := r.lookup(L, 1)

	switch o := obj.(type) {
	case *cellObject:
		v, err := toValue(L.Get(2))
		if err != nil {
			L.ArgError(2, err.Error())
		}
		r.write(L, func(tx *state.Tx) { o.Put(tx, v) })
	case *listObject:
		items, err := toItems(L.CheckTable(2))
		if err != nil {
			L.ArgError(2, err.Error())
		}
		r.write(L, func(tx *state.Tx) { o.Replace(tx, items) })
	default:
		L.ArgError(1, "set needs a cell or list, use put for dicts")
	}
	return 0
}

// rewind.push(name, value...) appends to a list.
func (r *Runtime) luaPush(L *lua.LState) int {
	list, ok := r.lookup(L, 1).(*listObject)
	if !ok {
		L.ArgError(1, "push needs a list")
	}

	items := make([]any, 0, L.GetTop()-1)
	for i := 2; i <= L.GetTop(); i++ {
		v, err := toValue(L.Get(i))
		if err != nil {
			L.ArgError(i, err.Error())
		}
		items = append(items, v)
	}
	r.write(L, func(tx *state.Tx) { list.Append(tx, items...) })
	return 0
}

// rewind.put(name, key, value) sets a dict entry; a nil value removes it.
func (r *Runtime) luaPut(L *lua.LState) int {
	dict, ok := r.lookup(L, 1).(*dictObject)
	if !ok {
		L.ArgError(1, "put needs a dict")
	}
	key := L.CheckString(2)

	if L.Get(3) == lua.LNil {
		r.write(L, func(tx *state.Tx) { dict.Remove(tx, key) })
		return 0
	}
	v, err := toValue(L.Get(3))
	if err != nil {
		L.ArgError(3, err.Error())
	}
	r.write(L, func(tx *state.Tx) { dict.Put(tx, key, v) })
	return 0
}

// rewind.batch(fn) runs fn inside one store transaction, so its changes
// commit together.
func (r *Runtime) luaBatch(L *lua.LState) int {
	fn := L.CheckFunction(1)
	r.checkIdle(L, "batch")

	var callErr error
	_ = r.store.Write(func(tx *state.Tx) error {
		r.tx = tx
		defer func() { r.tx = nil }()
		callErr = L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true})
		return callErr
	})
	if callErr != nil {
		L.RaiseError("batch: %v", callErr)
	}
	return 0
}

// rewind.objects() lists the labels of every live object in the store.
// Dropped objects disappear once collected.
func (r *Runtime) luaObjects(L *lua.LState) int {
	var names []string
	r.store.Labels(func(_ *state.Handle, name string) {
		names = append(names, name)
	})
	sort.Strings(names)

	tbl := L.CreateTable(len(names), 0)
	for _, name := range names {
		tbl.Append(lua.LString(name))
	}
	L.Push(tbl)
	return 1
}

// rewind.drop(name) stops tracking an object and releases it.
func (r *Runtime) luaDrop(L *lua.LState) int {
	name := L.CheckString(1)
	obj := r.lookup(L, 1)
	r.checkIdle(L, "drop")

	r.engine.StopTracking(obj)
	delete(r.objects, name)
	return 0
}

func (r *Runtime) luaTrack(L *lua.LState) int {
	obj := r.lookup(L, 1)
	r.checkIdle(L, "track")
	if err := r.engine.StartTracking(obj); err != nil {
		L.RaiseError("track: %v", err)
	}
	return 0
}

func (r *Runtime) luaUntrack(L *lua.LState) int {
	obj := r.lookup(L, 1)
	r.checkIdle(L, "untrack")
	r.engine.StopTracking(obj)
	return 0
}

func (r *Runtime) luaSave(L *lua.LState) int {
	r.checkIdle(L, "save")
	L.Push(lua.LBool(r.engine.SaveFrame()))
	return 1
}

func (r *Runtime) luaUndo(L *lua.LState) int {
	r.checkIdle(L, "undo")
	r.raiseIf(L, r.engine.Undo())
	L.Push(lua.LNumber(r.engine.CurrentFrame()))
	return 1
}

func (r *Runtime) luaRedo(L *lua.LState) int {
	r.checkIdle(L, "redo")
	r.raiseIf(L, r.engine.Redo())
	L.Push(lua.LNumber(r.engine.CurrentFrame()))
	return 1
}

// rewind.seek(index) moves to a frame; indices start at 0.
func (r *Runtime) luaSeek(L *lua.LState) int {
	index := L.CheckInt(1)
	r.checkIdle(L, "seek")
	r.raiseIf(L, r.engine.SetCurrentFrame(index))
	L.Push(lua.LNumber(r.engine.CurrentFrame()))
	return 1
}

func (r *Runtime) luaFrame(L *lua.LState) int {
	L.Push(lua.LNumber(r.engine.CurrentFrame()))
	return 1
}

func (r *Runtime) luaFrames(L *lua.LState) int {
	L.Push(lua.LNumber(r.engine.FrameCount()))
	return 1
}

func (r *Runtime) luaCanUndo(L *lua.LState) int {
	L.Push(lua.LBool(r.engine.CanUndo()))
	return 1
}

func (r *Runtime) luaCanRedo(L *lua.LState) int {
	L.Push(lua.LBool(r.engine.CanRedo()))
	return 1
}

// rewind.record([autosave]) starts recording; with autosave every commit
// that changes a tracked object saves a frame.
func (r *Runtime) luaRecord(L *lua.LState) int {
	r.checkIdle(L, "record")

	var onCommitted func()
	if L.OptBool(1, false) {
		onCommitted = func() { r.engine.SaveFrame() }
	}
	L.Push(lua.LBool(r.engine.StartRecording(onCommitted)))
	return 1
}

func (r *Runtime) luaStop(L *lua.LState) int {
	L.Push(lua.LBool(r.engine.StopRecording()))
	return 1
}

// lookup resolves the object named by argument n.
func (r *Runtime) lookup(L *lua.LState, n int) state.Recordable {
	name := L.CheckString(n)
	obj, ok := r.objects[name]
	if !ok {
		L.ArgError(n, "unknown object "+name)
	}
	return obj
}

// write applies fn in the open batch transaction or a new one.
func (r *Runtime) write(L *lua.LState, fn func(tx *state.Tx)) {
	if r.tx != nil {
		fn(r.tx)
		return
	}
	err := r.store.Write(func(tx *state.Tx) error {
		fn(tx)
		return nil
	})
	r.raiseIf(L, err)
}

// checkIdle raises for operations that need the store transaction while
// a batch holds it.
func (r *Runtime) checkIdle(L *lua.LState, op string) {
	if r.tx != nil {
		L.RaiseError("%s is not allowed inside batch", op)
	}
}

func (r *Runtime) raiseIf(L *lua.LState, err error) {
	if err != nil {
		L.RaiseError("%v", err)
	}
}
