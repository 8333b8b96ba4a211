// Package classregistry is the class registry (C15): it maps canonical
// class names to loaded class types, resolving from registered in-memory
// class blobs or archive sources, and triggers class-file loading on first
// request. It also owns VM bootstrap of the small set of Go-native
// stand-in core classes (§11.3).
package classregistry

import (
	"sync"

	"classvm/classfile"
	"classvm/vmclass"
	"classvm/vmerrors"
)

// Source is the archive/class-blob collaborator's only contract toward the
// core (§6 "Archive source"): look up a class's bytes by canonical name,
// and optionally identify a single entry-point class.
type Source interface {
	ClassBytes(name string) ([]byte, bool)
	MainClass() (string, bool)
}

// Registry is the process-wide class-name -> class-type map (§4.5
// "Registry monitor"), plus the ordered list of sources consulted on a
// cache miss.
type Registry struct {
	mu      sync.Mutex
	classes map[string]*vmclass.ClassType
	sources []Source

	StringClass *vmclass.ClassType // java/lang/String, for the string bridge
}

// New returns an empty registry. Call Bootstrap to populate the core
// stand-in classes before resolving any user class.
func New() *Registry {
	return &Registry{classes: make(map[string]*vmclass.ClassType)}
}

// AddSource registers an archive or class-blob source, consulted in
// registration order on a cache miss.
func (r *Registry) AddSource(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources = append(r.sources, s)
}

// register inserts an already-built class type directly, bypassing load —
// used by Bootstrap for the Go-native stand-ins.
func (r *Registry) register(ct *vmclass.ClassType) {
	r.mu.Lock()
	r.classes[ct.Name] = ct
	r.mu.Unlock()
}

// Lookup returns the class type for name if already loaded, without
// triggering a load.
func (r *Registry) Lookup(name string) (*vmclass.ClassType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ct, ok := r.classes[name]
	return ct, ok
}

// Resolve implements vmclass.Resolver: it returns the class type for name,
// loading it from a registered source and linking its super/interface
// chain on first request. A class not found anywhere is returned as a
// vmerrors.Internal error; the interpreter passes it up to the host
// unchanged, so bytecode cannot catch it as a LinkageError.
func (r *Registry) Resolve(name string) (*vmclass.ClassType, error) {
	if ct, ok := r.Lookup(name); ok {
		return ct, nil
	}

	data, ok := r.findBytes(name)
	if !ok {
		return nil, vmerrors.Internal("class not found: " + name)
	}
	cf, err := classfile.Parse(data)
	if err != nil {
		return nil, err
	}
	ct := vmclass.NewClassType(cf)

	// Publish before linking so a cycle through a not-yet-finished super
	// chain (legal for interfaces referencing each other) still resolves
	// to the same instance rather than reloading.
	r.mu.Lock()
	if existing, ok := r.classes[name]; ok {
		r.mu.Unlock()
		return existing, nil
	}
	r.classes[name] = ct
	r.mu.Unlock()

	if err := ct.EnsureLinked(r); err != nil {
		return nil, err
	}
	return ct, nil
}

func (r *Registry) findBytes(name string) ([]byte, bool) {
	r.mu.Lock()
	sources := append([]Source(nil), r.sources...)
	r.mu.Unlock()
	for _, s := range sources {
		if data, ok := s.ClassBytes(name); ok {
			return data, true
		}
	}
	return nil, false
}

// MainClass asks each registered source, in order, for an entry-point class
// name.
func (r *Registry) MainClass() (string, bool) {
	r.mu.Lock()
	sources := append([]Source(nil), r.sources...)
	r.mu.Unlock()
	for _, s := range sources {
		if name, ok := s.MainClass(); ok {
			return name, true
		}
	}
	return "", false
}
