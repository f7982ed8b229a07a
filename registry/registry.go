// Package registry implements ClassRegistry: the process-wide, bidirectional
// mapping between remote class aliases and local type descriptors that the
// Encoder and Parser consult to translate TypedObject values (spec.md §4.2).
package registry

import (
	"reflect"
	"sync"

	"github.com/samber/lo"

	codecerrors "github.com/casio/amfcodec/internal/errors"
	"github.com/casio/amfcodec/internal/logger"
)

// ReadExternalFunc consumes exactly the externalized body bytes for one
// instance from src and populates instance in place.
type ReadExternalFunc func(instance any, src ExternalReader) error

// WriteExternalFunc writes exactly the externalized body bytes for instance
// to dst.
type WriteExternalFunc func(instance any, dst ExternalWriter) error

// ExternalReader is the minimal stream surface an externalization hook
// needs to consume its own body; amf0.Parser implements it via its
// underlying ByteStream.
type ExternalReader interface {
	ReadU8() (uint8, error)
	ReadU16() (uint16, error)
	ReadU32() (uint32, error)
	ReadDouble() (float64, error)
	ReadUTF8(n int) (string, error)
}

// ExternalWriter is the symmetric write-side surface.
type ExternalWriter interface {
	WriteU8(uint8) error
	WriteU16(uint16) error
	WriteU32(uint32) error
	WriteDouble(float64) error
	WriteUTF8(string) error
}

// Constructor builds a new zero-value instance of the registered type.
type Constructor func() any

// Options carries the optional pieces of a registration: a constructor (if
// omitted, reflect.New(type).Interface() is used) and an externalization
// hook pair. A descriptor is Externalizable only when both hooks are
// present, per spec.md §3.
type Options struct {
	Constructor   Constructor
	ReadExternal  ReadExternalFunc
	WriteExternal WriteExternalFunc
}

// ClassDescriptor is the registry's record for one registered type: its
// remote alias, its local type, a constructor, and optional externalization
// hooks.
type ClassDescriptor struct {
	Alias         string
	Type          reflect.Type
	NewInstance   Constructor
	ReadExternal  ReadExternalFunc
	WriteExternal WriteExternalFunc
}

// Externalizable reports whether this descriptor carries both
// externalization hooks, per spec.md §3's definition.
func (d *ClassDescriptor) Externalizable() bool {
	return d.ReadExternal != nil && d.WriteExternal != nil
}

func sameDescriptor(a, b *ClassDescriptor) bool {
	return a.Alias == b.Alias && a.Type == b.Type &&
		(a.ReadExternal != nil) == (b.ReadExternal != nil) &&
		(a.WriteExternal != nil) == (b.WriteExternal != nil)
}

// ClassRegistry is the bidirectional alias<->type map. Construct it with
// New: the zero value's maps are nil, so registering into it panics. Mutation (Register/Unregister) requires exclusive access; reads
// (LookupByAlias/LookupByType) may proceed concurrently with other reads,
// matching the many-reader/one-writer discipline in spec.md §5.
type ClassRegistry struct {
	mu      sync.RWMutex
	byAlias map[string]*ClassDescriptor
	byType  map[reflect.Type]*ClassDescriptor
}

// New returns an empty ClassRegistry.
func New() *ClassRegistry {
	return &ClassRegistry{
		byAlias: make(map[string]*ClassDescriptor),
		byType:  make(map[reflect.Type]*ClassDescriptor),
	}
}

var defaultRegistry = New()

// Default returns the process-wide registry applications may share instead
// of threading a *ClassRegistry through every call site.
func Default() *ClassRegistry { return defaultRegistry }

// Register maps alias to t's descriptor. Re-registering the identical
// (type, alias, hook-presence) tuple is a no-op; registering a different
// type to an alias already in use fails with AliasConflict, per spec.md
// §4.2.
func (r *ClassRegistry) Register(t reflect.Type, alias string, opts Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc := &ClassDescriptor{
		Alias:         alias,
		Type:          t,
		NewInstance:   opts.Constructor,
		ReadExternal:  opts.ReadExternal,
		WriteExternal: opts.WriteExternal,
	}
	if desc.NewInstance == nil {
		desc.NewInstance = func() any { return reflect.New(t).Interface() }
	}

	if existing, ok := r.byAlias[alias]; ok {
		if sameDescriptor(existing, desc) {
			return nil
		}
		return &codecerrors.AliasConflict{Alias: alias}
	}

	r.byAlias[alias] = desc
	r.byType[t] = desc
	logger.WithAlias(logger.Logger(), alias).Debug().Str("type", t.String()).Msg("class registered")
	return nil
}

// Unregister removes alias's mapping, if any. Unregistering an alias that
// was never registered is a no-op.
func (r *ClassRegistry) Unregister(alias string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	desc, ok := r.byAlias[alias]
	if !ok {
		return
	}
	delete(r.byAlias, alias)
	if r.byType[desc.Type] == desc {
		delete(r.byType, desc.Type)
	}
}

// LookupByAlias returns the descriptor registered for alias, or nil.
func (r *ClassRegistry) LookupByAlias(alias string) *ClassDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAlias[alias]
}

// LookupByType returns the descriptor registered for t, or nil.
func (r *ClassRegistry) LookupByType(t reflect.Type) *ClassDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byType[t]
}

// Aliases returns every registered alias, in no particular order.
func (r *ClassRegistry) Aliases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Keys(r.byAlias)
}

// Transaction batches several registrations under one write-lock
// acquisition, so concurrent readers never observe a half-registered
// descriptor set mid-startup (spec.md §5's "guarded transaction" rather
// than per-entry locking).
type Transaction struct {
	r    *ClassRegistry
	done bool
}

// Begin starts a registration transaction against r.
func (r *ClassRegistry) Begin() *Transaction {
	r.mu.Lock()
	return &Transaction{r: r}
}

// Register adds one mapping within the transaction.
func (tx *Transaction) Register(t reflect.Type, alias string, opts Options) error {
	desc := &ClassDescriptor{
		Alias:         alias,
		Type:          t,
		NewInstance:   opts.Constructor,
		ReadExternal:  opts.ReadExternal,
		WriteExternal: opts.WriteExternal,
	}
	if desc.NewInstance == nil {
		desc.NewInstance = func() any { return reflect.New(t).Interface() }
	}
	if existing, ok := tx.r.byAlias[alias]; ok {
		if sameDescriptor(existing, desc) {
			return nil
		}
		return &codecerrors.AliasConflict{Alias: alias}
	}
	tx.r.byAlias[alias] = desc
	tx.r.byType[t] = desc
	return nil
}

// Commit releases the write lock, making every registration performed
// during the transaction visible to readers atomically.
func (tx *Transaction) Commit() {
	if tx.done {
		return
	}
	tx.done = true
	tx.r.mu.Unlock()
}
