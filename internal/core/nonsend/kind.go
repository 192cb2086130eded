package nonsend

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/l1jgo/nonsend/internal/core/ecs"
)

var (
	ErrUnknownKind       = errors.New("unknown resource kind")
	ErrDuplicateKind     = errors.New("resource kind already registered")
	ErrInsertUnsupported = errors.New("resource kind cannot be inserted from values")
)

// Kind names a non-send resource type so config files and scripts can queue
// commands for it without knowing the Go type.
type Kind struct {
	Name     string
	initFn   func() ecs.Command
	removeFn func() ecs.Command

	// prepare validates values on the caller's goroutine and returns the
	// factory that builds the resource on the owner thread.
	prepare func(values map[string]any) (func() ecs.Command, error)
}

// KindOf describes R under name.
func KindOf[R any, P ecs.FromWorld[R]](name string) Kind {
	return Kind{
		Name:     name,
		initFn:   InitResource[R, P],
		removeFn: RemoveResource[R],
	}
}

// Decodable returns k extended with insert support. decode runs when the
// insert is queued and returns the factory that later builds the value.
func Decodable[R any](k Kind, decode func(values map[string]any) (func() R, error)) Kind {
	k.prepare = func(values map[string]any) (func() ecs.Command, error) {
		factory, err := decode(values)
		if err != nil {
			return nil, err
		}
		return func() ecs.Command { return InsertResource(factory) }, nil
	}
	return k
}

func (k Kind) InitCommand() ecs.Command   { return k.initFn() }
func (k Kind) RemoveCommand() ecs.Command { return k.removeFn() }

// InsertCommand decodes values into an insert command.
func (k Kind) InsertCommand(values map[string]any) (ecs.Command, error) {
	if k.prepare == nil {
		return nil, fmt.Errorf("%s: %w", k.Name, ErrInsertUnsupported)
	}
	build, err := k.prepare(values)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", k.Name, err)
	}
	return build(), nil
}

// Kinds is a name-indexed set of Kind. Safe for concurrent use.
type Kinds struct {
	mu    sync.RWMutex
	kinds map[string]Kind
}

func NewKinds() *Kinds {
	return &Kinds{kinds: make(map[string]Kind, 16)}
}

func (ks *Kinds) Register(k Kind) error {
	if k.Name == "" || k.initFn == nil {
		return fmt.Errorf("register kind %q: missing name or constructor", k.Name)
	}
	ks.mu.Lock()
	defer ks.mu.Unlock()
	if _, ok := ks.kinds[k.Name]; ok {
		return fmt.Errorf("register kind %q: %w", k.Name, ErrDuplicateKind)
	}
	ks.kinds[k.Name] = k
	return nil
}

func (ks *Kinds) MustRegister(k Kind) {
	if err := ks.Register(k); err != nil {
		panic(err)
	}
}

func (ks *Kinds) Lookup(name string) (Kind, error) {
	ks.mu.RLock()
	k, ok := ks.kinds[name]
	ks.mu.RUnlock()
	if !ok {
		return Kind{}, fmt.Errorf("%q: %w", name, ErrUnknownKind)
	}
	return k, nil
}

// Names returns the registered kind names in sorted order.
func (ks *Kinds) Names() []string {
	ks.mu.RLock()
	names := make([]string, 0, len(ks.kinds))
	for name := range ks.kinds {
		names = append(names, name)
	}
	ks.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Init queues registration of the named kind on q.
func (ks *Kinds) Init(q ecs.CommandQueue, name string) error {
	k, err := ks.Lookup(name)
	if err != nil {
		return err
	}
	q.Push(k.InitCommand())
	return nil
}

// Insert decodes values for the named kind and queues the insert on q.
func (ks *Kinds) Insert(q ecs.CommandQueue, name string, values map[string]any) error {
	k, err := ks.Lookup(name)
	if err != nil {
		return err
	}
	cmd, err := k.InsertCommand(values)
	if err != nil {
		return err
	}
	q.Push(cmd)
	return nil
}

// Remove queues removal of the named kind on q.
func (ks *Kinds) Remove(q ecs.CommandQueue, name string) error {
	k, err := ks.Lookup(name)
	if err != nil {
		return err
	}
	q.Push(k.RemoveCommand())
	return nil
}
