package protocol

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// DefaultDictionaryDir holds the shipped data dictionaries.
const DefaultDictionaryDir = "spec"

// Version identities.
const (
	ID44    = "44"
	ID50    = "50"
	ID50SP1 = "50SP1"
	ID50SP2 = "50SP2"
)

var ErrVersionExists = errors.New("protocol: version already registered")

// beginStrings maps a version identity to the BeginString (tag 8) it expects.
var beginStrings = map[string]string{
	ID44:    "FIX.4.4",
	ID50:    "FIX.5.0",
	ID50SP1: "FIX.5.0SP1",
	ID50SP2: "FIX.5.0SP2",
}

var builtinFiles = map[string]string{
	ID44:    "FIX44.xml",
	ID50:    "FIX50.xml",
	ID50SP1: "FIX50SP1.xml",
	ID50SP2: "FIX50SP2.xml",
}

var (
	FIX44    = builtinVersion(DefaultDictionaryDir, ID44)
	FIX50    = builtinVersion(DefaultDictionaryDir, ID50)
	FIX50SP1 = builtinVersion(DefaultDictionaryDir, ID50SP1)
	FIX50SP2 = builtinVersion(DefaultDictionaryDir, ID50SP2)
)

// Version is an immutable protocol revision bound to a dictionary reference.
// Overrides produce a new value and never touch the receiver.
type Version struct {
	id         string
	defaultRef string
	override   string
}

// NewVersion builds a version whose default reference is ref.
func NewVersion(id, ref string) Version {
	return Version{id: strings.TrimSpace(id), defaultRef: ref}
}

func builtinVersion(dir, id string) Version {
	return Version{id: id, defaultRef: filepath.Join(dir, builtinFiles[id])}
}

// ID returns the canonical version token.
func (v Version) ID() string {
	return v.id
}

// DefaultReference returns the reference used when no override is set.
func (v Version) DefaultReference() string {
	return v.defaultRef
}

func (v Version) HasOverride() bool {
	return v.override != ""
}

// WithOverride returns a copy of v resolving to ref. An empty ref clears the
// override.
func (v Version) WithOverride(ref string) Version {
	v.override = strings.TrimSpace(ref)
	return v
}

// WithoutOverride returns a copy of v resolving to its default reference.
func (v Version) WithoutOverride() Version {
	v.override = ""
	return v
}

// SchemaReference resolves the active dictionary reference. The override wins
// when set; otherwise the default must exist on disk.
func (v Version) SchemaReference() (string, error) {
	if v.id == "" {
		return "", ErrUnknownVersion
	}
	if v.override != "" {
		return v.override, nil
	}
	if v.defaultRef == "" {
		return "", fmt.Errorf("%w: version %s has no dictionary", ErrResourceNotFound, v.id)
	}
	if _, err := os.Stat(v.defaultRef); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrResourceNotFound, v.defaultRef, err)
	}
	return v.defaultRef, nil
}

// BeginString returns the tag 8 value messages of this version must carry.
func (v Version) BeginString() (string, error) {
	bs, ok := beginStrings[v.id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVersion, v.id)
	}
	return bs, nil
}

func (v Version) String() string {
	if bs, ok := beginStrings[v.id]; ok {
		return bs
	}
	return v.id
}

// Registry tracks the known versions and their runtime overrides. Lookups
// return snapshots, so changing an override never affects a conversion that
// already resolved its version.
type Registry struct {
	mu        sync.RWMutex
	versions  map[string]Version
	overrides map[string]string
}

// NewRegistry creates a registry with the built-in versions rooted at dir.
func NewRegistry(dir string) *Registry {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultDictionaryDir
	}
	r := &Registry{
		versions:  make(map[string]Version, len(builtinFiles)),
		overrides: make(map[string]string),
	}
	for id := range builtinFiles {
		r.versions[id] = builtinVersion(dir, id)
	}
	return r
}

// Register adds a custom version.
func (r *Registry) Register(v Version) error {
	if v.id == "" {
		return ErrUnknownVersion
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[v.id]; ok {
		return fmt.Errorf("%w: %s", ErrVersionExists, v.id)
	}
	r.versions[v.id] = v.WithoutOverride()
	return nil
}

// Version returns the version for id with any configured override applied.
func (r *Registry) Version(id string) (Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.versions[strings.TrimSpace(id)]
	if !ok {
		return Version{}, fmt.Errorf("%w: %q", ErrUnknownVersion, id)
	}
	if ref, ok := r.overrides[v.id]; ok {
		v = v.WithOverride(ref)
	}
	return v, nil
}

// SetOverride points id at ref for every later lookup. An empty ref clears the
// override.
func (r *Registry) SetOverride(id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.versions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownVersion, id)
	}
	ref = strings.TrimSpace(ref)
	if ref == "" {
		delete(r.overrides, id)
		return nil
	}
	r.overrides[id] = ref
	return nil
}

// ResetOverride restores the default reference for id.
func (r *Registry) ResetOverride(id string) error {
	return r.SetOverride(id, "")
}

// Versions lists every registered version ordered by id.
func (r *Registry) Versions() []Version {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]Version, 0, len(r.versions))
	for id, v := range r.versions {
		if ref, ok := r.overrides[id]; ok {
			v = v.WithOverride(ref)
		}
		list = append(list, v)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].id < list[j].id
	})
	return list
}
