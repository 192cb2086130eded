package ecs

import "reflect"

// FromWorld is satisfied by *R when R can build its default value from the
// world. Types whose zero value is already the default implement it with an
// empty body.
type FromWorld[R any] interface {
	*R
	FromWorld(w *World)
}

func typeOf[R any]() reflect.Type {
	return reflect.TypeOf((*R)(nil)).Elem()
}

// TypeOf returns the key resources of type R are stored under.
func TypeOf[R any]() reflect.Type {
	return typeOf[R]()
}

// ── Shareable resources ────────────────────────────────────────────

// InsertResource stores v as the R resource, replacing any previous value.
func InsertResource[R any](w *World, v R) *R {
	t := typeOf[R]()
	p := &v
	w.resMu.Lock()
	w.resources[t] = p
	w.resMu.Unlock()
	w.notifyInserted(t, false)
	return p
}

// InitResource stores R's world-derived default unless R is already present.
// It returns the stored value either way.
func InitResource[R any, P FromWorld[R]](w *World) *R {
	if p, ok := GetResource[R](w); ok {
		return p
	}
	// Built outside the lock: FromWorld may read other resources.
	p := new(R)
	P(p).FromWorld(w)

	t := typeOf[R]()
	w.resMu.Lock()
	if cur, ok := w.resources[t]; ok {
		w.resMu.Unlock()
		return cur.(*R)
	}
	w.resources[t] = p
	w.resMu.Unlock()
	w.notifyInserted(t, false)
	return p
}

func GetResource[R any](w *World) (*R, bool) {
	w.resMu.RLock()
	v, ok := w.resources[typeOf[R]()]
	w.resMu.RUnlock()
	if !ok {
		return nil, false
	}
	return v.(*R), true
}

func HasResource[R any](w *World) bool {
	_, ok := GetResource[R](w)
	return ok
}

// RemoveResource deletes R and returns its last value. Removing an absent
// resource is a no-op.
func RemoveResource[R any](w *World) (R, bool) {
	t := typeOf[R]()
	w.resMu.Lock()
	v, ok := w.resources[t]
	delete(w.resources, t)
	w.resMu.Unlock()
	if !ok {
		var zero R
		return zero, false
	}
	w.notifyRemoved(t, false)
	return *v.(*R), true
}

// ── Non-send resources ─────────────────────────────────────────────
//
// No lock: these take the world's Owner, which only the designated thread
// holds.

// InsertNonSend stores v as the non-send R resource, replacing any previous
// value.
func InsertNonSend[R any](o *Owner, v R) *R {
	t := typeOf[R]()
	p := &v
	o.w.nonSend[t] = p
	o.w.notifyInserted(t, true)
	return p
}

// InitNonSend stores R's world-derived default unless R is already present.
// FromWorld sees the world, so it may read shareable resources only.
func InitNonSend[R any, P FromWorld[R]](o *Owner) *R {
	t := typeOf[R]()
	if cur, ok := o.w.nonSend[t]; ok {
		return cur.(*R)
	}
	p := new(R)
	P(p).FromWorld(o.w)
	o.w.nonSend[t] = p
	o.w.notifyInserted(t, true)
	return p
}

func GetNonSend[R any](o *Owner) (*R, bool) {
	v, ok := o.w.nonSend[typeOf[R]()]
	if !ok {
		return nil, false
	}
	return v.(*R), true
}

func HasNonSend[R any](o *Owner) bool {
	_, ok := GetNonSend[R](o)
	return ok
}

// RemoveNonSend deletes the non-send R and returns its last value. Removing an
// absent resource is a no-op.
func RemoveNonSend[R any](o *Owner) (R, bool) {
	t := typeOf[R]()
	v, ok := o.w.nonSend[t]
	if !ok {
		var zero R
		return zero, false
	}
	delete(o.w.nonSend, t)
	o.w.notifyRemoved(t, true)
	return *v.(*R), true
}
