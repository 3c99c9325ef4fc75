package store

import (
	"sort"
	"time"
)

// ChangeKind beschreibt die Art einer Änderung
type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeUpdated  ChangeKind = "updated"
	ChangeRestored ChangeKind = "restored"
)

// EntityKind benennt die betroffene Sammlung
type EntityKind string

const (
	EntitySubject EntityKind = "subject"
	EntityTask    EntityKind = "task"
	EntitySession EntityKind = "session"
	EntityGrade   EntityKind = "grade"
	EntityGoal    EntityKind = "goal"
	EntityAll     EntityKind = "all"
)

// Change wird nach jeder erfolgreichen Änderung an alle Abonnenten verschickt
type Change struct {
	Kind   ChangeKind `json:"kind"`
	Entity EntityKind `json:"entity"`
	ID     string     `json:"id,omitempty"`
	At     time.Time  `json:"at"`
}

// Subscribe registriert fn für Änderungen. Die zurückgegebene Funktion meldet wieder ab.
// fn läuft synchron nach Freigabe des Locks und darf den Store lesen und ändern.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.listeners, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(kind ChangeKind, entity EntityKind, id string) {
	change := Change{Kind: kind, Entity: entity, ID: id, At: s.clock.Now()}

	s.subMu.Lock()
	ids := make([]int, 0, len(s.listeners))
	for k := range s.listeners {
		ids = append(ids, k)
	}
	sort.Ints(ids)
	fns := make([]func(Change), 0, len(ids))
	for _, k := range ids {
		fns = append(fns, s.listeners[k])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}
