// Package configkernel wraps storage.ConfigStore with value-type
// validation, deterministic snapshotting, and cache invalidation, so
// callers never reason about the underlying namespace/key map directly.
package configkernel

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"sync"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/idgen"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/kerrors"
	"github.com/uaesivakumar/authority-kernel/internal/kernel/storage"
)

// Kernel is the service facade over storage.ConfigStore. It keeps a small
// read-through cache of active entries per namespace: a Set/Delete/Rollback
// drops the cached entries of the namespace it touched, and Reload drops
// every namespace at once.
type Kernel struct {
	store storage.ConfigStore
	clock idgen.Clock

	mu    sync.RWMutex
	cache map[string][]domain.ConfigEntry // namespace -> active entries
}

func New(store storage.ConfigStore, clock idgen.Clock) *Kernel {
	return &Kernel{store: store, clock: clock, cache: make(map[string][]domain.ConfigEntry)}
}

func (k *Kernel) Get(ctx context.Context, namespace, key string) (domain.ConfigEntry, error) {
	return k.store.Get(ctx, namespace, key)
}

func (k *Kernel) GetNamespace(ctx context.Context, namespace string) ([]domain.ConfigEntry, error) {
	k.mu.RLock()
	if cached, ok := k.cache[namespace]; ok {
		k.mu.RUnlock()
		return cached, nil
	}
	k.mu.RUnlock()

	entries, err := k.store.GetNamespace(ctx, namespace)
	if err != nil {
		return nil, err
	}
	k.mu.Lock()
	k.cache[namespace] = entries
	k.mu.Unlock()
	return entries, nil
}

func (k *Kernel) GetMany(ctx context.Context, pairs [][2]string) ([]domain.ConfigEntry, error) {
	return k.store.GetMany(ctx, pairs)
}

// Set validates value against the declared ValueType, then applies it,
// bumping the version, and drops the cached entries of e's namespace.
func (k *Kernel) Set(ctx context.Context, e domain.ConfigEntry) (domain.ConfigEntry, error) {
	if err := validateValue(e.Value, e.ValueType); err != nil {
		return domain.ConfigEntry{}, err
	}
	written, err := k.store.Set(ctx, e)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	k.invalidate(e.Namespace)
	return written, nil
}

func (k *Kernel) Delete(ctx context.Context, namespace, key, updatedBy string) error {
	if err := k.store.Delete(ctx, namespace, key, updatedBy); err != nil {
		return err
	}
	k.invalidate(namespace)
	return nil
}

func (k *Kernel) Rollback(ctx context.Context, namespace, key string, version int, updatedBy string) (domain.ConfigEntry, error) {
	rolled, err := k.store.Rollback(ctx, namespace, key, version, updatedBy)
	if err != nil {
		return domain.ConfigEntry{}, err
	}
	k.invalidate(namespace)
	return rolled, nil
}

// Reload drops the entire namespace cache, forcing the next read of any
// namespace to round-trip to the store.
func (k *Kernel) Reload() {
	k.mu.Lock()
	k.cache = make(map[string][]domain.ConfigEntry)
	k.mu.Unlock()
}

func (k *Kernel) invalidate(namespace string) {
	k.mu.Lock()
	delete(k.cache, namespace)
	k.mu.Unlock()
}

// Snapshot captures a deterministic, namespace-then-key ordered view of
// the given namespaces for later diffing via ValidateSnapshot.
func (k *Kernel) Snapshot(ctx context.Context, namespaces []string) (domain.ConfigSnapshot, error) {
	sorted := append([]string(nil), namespaces...)
	sort.Strings(sorted)

	snap := domain.ConfigSnapshot{
		Namespaces: sorted,
		Entries:    make(map[string]domain.ConfigEntry),
		TakenAt:    k.clock.Now(),
	}
	for _, ns := range sorted {
		entries, err := k.store.GetNamespace(ctx, ns)
		if err != nil {
			return domain.ConfigSnapshot{}, err
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
		for _, e := range entries {
			snap.Entries[snapshotKey(e.Namespace, e.Key)] = e
		}
	}
	return snap, nil
}

// ValidateSnapshot diffs a previously captured snapshot against the
// current live state of the same namespaces, returning which keys were
// added, removed, or changed in value since the snapshot was taken.
func (k *Kernel) ValidateSnapshot(ctx context.Context, snapshot domain.ConfigSnapshot, namespaces []string) (domain.SnapshotDiff, error) {
	current, err := k.Snapshot(ctx, namespaces)
	if err != nil {
		return domain.SnapshotDiff{}, err
	}

	var diff domain.SnapshotDiff
	currentKeys := make([]string, 0, len(current.Entries))
	for key := range current.Entries {
		currentKeys = append(currentKeys, key)
	}
	sort.Strings(currentKeys)

	for _, key := range currentKeys {
		before, existed := snapshot.Entries[key]
		after := current.Entries[key]
		switch {
		case !existed:
			diff.Added = append(diff.Added, key)
		case before.Value != after.Value || before.ValueType != after.ValueType:
			diff.Changed = append(diff.Changed, key)
		}
	}

	snapshotKeys := make([]string, 0, len(snapshot.Entries))
	for key := range snapshot.Entries {
		snapshotKeys = append(snapshotKeys, key)
	}
	sort.Strings(snapshotKeys)
	for _, key := range snapshotKeys {
		if _, stillPresent := current.Entries[key]; !stillPresent {
			diff.Removed = append(diff.Removed, key)
		}
	}

	return diff, nil
}

func snapshotKey(namespace, key string) string {
	return namespace + "/" + key
}

// validateValue is a type-tag check, not a general schema engine: the
// pack carries no JSON-schema library, and the kernel's config values are
// scalars or opaque JSON blobs, not structured documents that would
// benefit from one.
func validateValue(value string, valueType domain.ConfigValueType) error {
	var err error
	switch valueType {
	case domain.ConfigTypeString:
		return nil
	case domain.ConfigTypeInt:
		_, err = strconv.ParseInt(value, 10, 64)
	case domain.ConfigTypeFloat:
		_, err = strconv.ParseFloat(value, 64)
	case domain.ConfigTypeBool:
		_, err = strconv.ParseBool(value)
	case domain.ConfigTypeJSON:
		var js interface{}
		err = json.Unmarshal([]byte(value), &js)
	default:
		return kerrors.New(kerrors.CodeInvalidStatus, "unknown config value type").
			WithDetails("value_type", string(valueType))
	}
	if err != nil {
		return kerrors.New(kerrors.CodeInvalidStatus, "config value does not match its declared type").
			WithDetails("value_type", string(valueType)).
			WithDetails("value", value)
	}
	return nil
}
