package goal

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"
)

var (
	// ErrUnknownType is returned by Create when a description names a type
	// that was never registered.
	ErrUnknownType = errors.New("unknown goal type")
	// ErrDuplicateType is returned by Register when a type is registered twice.
	ErrDuplicateType = errors.New("goal type already registered")
)

// Params holds named construction parameters.
type Params map[string]any

// Description is a declarative goal: a type identifier such as
// "goals.Ensure", plus construction parameters.
type Description struct {
	Type   string `json:"class" yaml:"class" mapstructure:"class"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params"`
}

// FactoryFunc builds a goal from params. The registry is passed so that
// factories can build nested descriptions. Returning a nil goal and nil error
// means "no goal".
type FactoryFunc func(r *Registry, params Params) (*Goal, error)

// Registry maps type identifiers to factories. It is populated at process
// start and is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]FactoryFunc
	logger    *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]FactoryFunc)}
}

// SetLogger sets the logger used by Create and handed to the goals built by
// the registry's factories. Defaults to slog.Default().
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// Register adds a factory for typeID.
func (r *Registry) Register(typeID string, factory FactoryFunc) error {
	if typeID == "" {
		return fmt.Errorf("goal type identifier cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("goal type %q: factory cannot be nil", typeID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[typeID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateType, typeID)
	}
	r.factories[typeID] = factory
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typeID string, factory FactoryFunc) {
	if err := r.Register(typeID, factory); err != nil {
		panic(err)
	}
}

// Lookup returns the factory registered for typeID.
func (r *Registry) Lookup(typeID string) (FactoryFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[typeID]
	return f, ok
}

// Types returns the registered type identifiers, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Create builds the goal described by d.
//
// A nil description, or a factory returning a nil goal, yields (nil, nil).
// Unknown types and factory failures are logged and returned.
func (r *Registry) Create(d *Description) (*Goal, error) {
	logger := r.Logger()
	if d == nil {
		logger.Info("[Factory] no goal description given")
		return nil, nil
	}

	factory, ok := r.Lookup(d.Type)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownType, d.Type)
		logger.Error("[Factory] error when creating goal from data", "class", d.Type, "error", err)
		return nil, err
	}

	params := d.Params
	if params == nil {
		params = Params{}
	}

	logger.Debug("[Factory] creating an instance", "class", d.Type)
	g, err := factory(r, params)
	if err != nil {
		logger.Error("[Factory] error when creating goal from data", "class", d.Type, "params", d.Params, "error", err)
		return nil, fmt.Errorf("creating goal %q: %w", d.Type, err)
	}
	if g == nil {
		logger.Info("[Factory] could not create goal from data", "class", d.Type, "params", d.Params)
		return nil, nil
	}
	return g, nil
}

// CreateAll builds every description in order, skipping those that yield no
// goal. It stops at the first error.
func (r *Registry) CreateAll(ds []*Description) ([]*Goal, error) {
	goals := make([]*Goal, 0, len(ds))
	for _, d := range ds {
		g, err := r.Create(d)
		if err != nil {
			return nil, err
		}
		if g != nil {
			goals = append(goals, g)
		}
	}
	return goals, nil
}

// Logger returns the registry's logger. Factories pass it to the goals they
// build with WithLogger.
func (r *Registry) Logger() *slog.Logger {
	if r == nil {
		return slog.Default()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

// Decode copies params into out, a pointer to a struct with mapstructure
// tags. Values are weakly typed ("3" decodes into an int) and unknown
// parameters are rejected.
func Decode(params Params, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("invalid decode target: %w", err)
	}
	if err := decoder.Decode(map[string]any(params)); err != nil {
		return fmt.Errorf("invalid goal params: %w", err)
	}
	return nil
}
