package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/rewind/internal/history"
	"github.com/dshills/rewind/internal/state"
)

// DefaultTimeout bounds a single script run.
const DefaultTimeout = 5 * time.Second

// Runtime runs Lua scripts against a store and its history engine.
//
// gopher-lua's LState is not goroutine-safe. The mutex serializes runs;
// Lua code itself executes on the calling goroutine.
type Runtime struct {
	L *lua.LState

	mu sync.Mutex

	store  *state.Store
	engine *history.Engine

	// Objects created by the script, by name. The runtime holds the only
	// strong references; drop releases them.
	objects map[string]state.Recordable

	// Set while a batch callback runs.
	tx *state.Tx

	// Configuration
	out     io.Writer
	logger  *slog.Logger
	timeout time.Duration

	closed bool
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOutput sets the destination of Lua print.
func WithOutput(w io.Writer) Option {
	return func(r *Runtime) {
		if w != nil {
			r.out = w
		}
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTimeout bounds every run; zero or negative disables the limit.
func WithTimeout(d time.Duration) Option {
	return func(r *Runtime) {
		r.timeout = d
	}
}

// New creates a sandboxed runtime with the rewind module installed.
func New(store *state.Store, engine *history.Engine, opts ...Option) *Runtime {
	r := &Runtime{
		store:   store,
		engine:  engine,
		objects: make(map[string]state.Recordable),
		out:     io.Discard,
		logger:  slog.New(slog.DiscardHandler),
		timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(r)
	}

	L := lua.NewState(lua.Options{
		SkipOpenLibs: true, // We'll open selectively
	})
	r.L = L

	openSafeLibraries(L)
	installSandbox(L, r.out)
	r.installModule()

	return r
}

// RunFile executes the Lua file at path.
func (r *Runtime) RunFile(ctx context.Context, path string) error {
	return r.run(ctx, path, func() error {
		return r.L.DoFile(path)
	})
}

// RunString executes code; name identifies it in errors.
func (r *Runtime) RunString(ctx context.Context, name, code string) error {
	return r.run(ctx, name, func() error {
		return r.L.DoString(code)
	})
}

// run executes fn under the run context with panic recovery.
func (r *Runtime) run(ctx context.Context, name string, fn func() error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	defer func() {
		if p := recover(); p != nil {
			err = &ScriptError{Path: name, Err: fmt.Errorf("lua panic: %v", p)}
		}
	}()

	start := time.Now()
	err = fn()
	r.logger.Debug("script: run finished",
		slog.String("script", name),
		slog.Duration("elapsed", time.Since(start)),
		slog.Bool("ok", err == nil))

	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrExecutionTimeout, err)
	} else if ctx.Err() != nil {
		err = fmt.Errorf("%w: %v", ctx.Err(), err)
	}
	return &ScriptError{Path: name, Err: err}
}

// Object returns the object the script created under name.
func (r *Runtime) Object(name string) (state.Recordable, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	obj, ok := r.objects[name]
	return obj, ok
}

// Names returns the names of the objects the runtime holds, sorted.
func (r *Runtime) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.namesLocked()
}

func (r *Runtime) namesLocked() []string {
	names := make([]string, 0, len(r.objects))
	for name := range r.objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close releases the Lua state. After Close, runs return ErrClosed.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.L.Close()
	r.closed = true
	return nil
}
