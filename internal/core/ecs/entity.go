package ecs

// Entity packs a 32-bit slot index in the low bits and a 32-bit generation in
// the high bits. Freeing a slot bumps its generation so stale handles fail
// Alive checks.
type Entity uint64

func makeEntity(slot, gen uint32) Entity {
	return Entity(uint64(gen)<<32 | uint64(slot))
}

func (e Entity) Slot() uint32       { return uint32(e) }
func (e Entity) Generation() uint32 { return uint32(e >> 32) }

// entityPool hands out generational entity handles and recycles freed slots.
type entityPool struct {
	gens []uint32
	free []uint32
	live int
}

func newEntityPool() *entityPool {
	return &entityPool{
		gens: make([]uint32, 0, 256),
		free: make([]uint32, 0, 64),
	}
}

func (p *entityPool) spawn() Entity {
	p.live++
	if n := len(p.free); n > 0 {
		slot := p.free[n-1]
		p.free = p.free[:n-1]
		return makeEntity(slot, p.gens[slot])
	}
	slot := uint32(len(p.gens))
	p.gens = append(p.gens, 0)
	return makeEntity(slot, 0)
}

func (p *entityPool) alive(e Entity) bool {
	slot := e.Slot()
	return int(slot) < len(p.gens) && p.gens[slot] == e.Generation()
}

func (p *entityPool) release(e Entity) bool {
	if !p.alive(e) {
		return false // stale handle, already released
	}
	p.gens[e.Slot()]++
	p.free = append(p.free, e.Slot())
	p.live--
	return true
}
