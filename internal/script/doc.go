// Package script runs Lua scripts that build state objects and drive their
// history.
//
// Scripts see a global table named rewind:
//
//	rewind.cell("title", "draft")
//	rewind.save()
//	rewind.record(true)          -- save a frame after every change
//	rewind.set("title", "final")
//	rewind.undo()
//	print(rewind.get("title"))   -- draft
//
// Values stored in objects are nil, booleans, numbers or strings. Lists and
// dicts take Lua tables of such values. Frame indices start at 0 and
// rewind.frame() returns -1 before the first save.
//
// The Lua state is sandboxed: io, os, debug and package are not opened and
// dofile, loadfile, load, loadstring and require are removed. Every run is
// bounded by a timeout.
package script
