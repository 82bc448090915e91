package sched

import "yulsched/src/ssa"

// slotEntry is one cell of the memory file: either empty, or holding a
// name currently resident there.
type slotEntry struct {
	occupied bool
	name     ssa.Name
}

// memoryFile is the scheduler's slot allocator. Slots are addressed by
// index; the slice only ever grows, so its length is the high-water mark
// of slots ever allocated — exactly the slot_count the contract requires.
type memoryFile struct {
	slots []slotEntry
	loc   map[ssa.Name]int
}

func newMemoryFile() *memoryFile {
	return &memoryFile{loc: make(map[ssa.Name]int)}
}

func (m *memoryFile) growTo(n int) {
	for len(m.slots) <= n {
		m.slots = append(m.slots, slotEntry{})
	}
}

// locate reports the slot currently holding name, without allocating one.
func (m *memoryFile) locate(name ssa.Name) (int, bool) {
	slot, ok := m.loc[name]
	return slot, ok
}

func (m *memoryFile) occupy(slot int, name ssa.Name) {
	m.growTo(slot)
	m.slots[slot] = slotEntry{occupied: true, name: name}
	m.loc[name] = slot
}

// lowestEmpty returns the lowest-index empty slot, allocating a new one at
// the end if none is free. This is the slot allocation policy the schedule
// uses whenever it is asked for a location for a name it hasn't placed yet.
func (m *memoryFile) lowestEmpty() int {
	for i, s := range m.slots {
		if !s.occupied {
			return i
		}
	}
	m.slots = append(m.slots, slotEntry{})
	return len(m.slots) - 1
}

// assignLoc returns name's existing slot if it has one, otherwise
// allocates the lowest free slot for it.
func (m *memoryFile) assignLoc(name ssa.Name) int {
	if slot, ok := m.locate(name); ok {
		return slot
	}
	slot := m.lowestEmpty()
	m.occupy(slot, name)
	return slot
}

// ingestAt places name directly at slot, bypassing the lowest-empty-reuse
// policy. Used only to seed start-stack names at their positional index,
// matching the machine's actual incoming stack layout.
func (m *memoryFile) ingestAt(slot int, name ssa.Name) {
	m.occupy(slot, name)
}

func (m *memoryFile) release(slot int) {
	if slot < len(m.slots) {
		m.slots[slot] = slotEntry{}
	}
}

// swap exchanges the contents of slots i and j, updating the location of
// whichever names (if any) occupy either slot afterward.
func (m *memoryFile) swap(i, j int) {
	m.growTo(i)
	m.growTo(j)
	m.slots[i], m.slots[j] = m.slots[j], m.slots[i]
	if m.slots[i].occupied {
		m.loc[m.slots[i].name] = i
	}
	if m.slots[j].occupied {
		m.loc[m.slots[j].name] = j
	}
}
