package event

import "reflect"

// ResourceInserted fires after a resource is inserted or registered.
type ResourceInserted struct {
	Type    string
	NonSend bool
}

// ResourceRemoved fires after a present resource is removed.
type ResourceRemoved struct {
	Type    string
	NonSend bool
}

// WorldObserver forwards world resource changes onto a Bus. It satisfies
// ecs.Observer.
type WorldObserver struct {
	Bus *Bus
}

func (o WorldObserver) ResourceInserted(t reflect.Type, nonSend bool) {
	Emit(o.Bus, ResourceInserted{Type: t.String(), NonSend: nonSend})
}

func (o WorldObserver) ResourceRemoved(t reflect.Type, nonSend bool) {
	Emit(o.Bus, ResourceRemoved{Type: t.String(), NonSend: nonSend})
}
