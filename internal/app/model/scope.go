package model

import "strconv"

// Scope says which store a catalog row belongs to. A row is either
// ScopedTo one store or Global (legacy data that predates tenancy).
// The zero value is Global.
type Scope struct {
	storeID uint
	scoped  bool
}

func ScopedTo(storeID uint) Scope {
	return Scope{storeID: storeID, scoped: true}
}

func Global() Scope {
	return Scope{}
}

// ScopeOf converts the nullable store_id column into a Scope.
func ScopeOf(storeID *uint) Scope {
	if storeID == nil {
		return Global()
	}
	return ScopedTo(*storeID)
}

// StoreID returns the owning store, ok=false for Global.
func (s Scope) StoreID() (uint, bool) {
	return s.storeID, s.scoped
}

func (s Scope) IsGlobal() bool {
	return !s.scoped
}

// Column returns the persisted form of the scope.
func (s Scope) Column() *uint {
	if !s.scoped {
		return nil
	}
	id := s.storeID
	return &id
}

// Contains reports whether a row with the given scope is visible under s.
// Global only contains Global rows; ScopedTo only its own store.
func (s Scope) Contains(other Scope) bool {
	return s == other
}

func (s Scope) String() string {
	if !s.scoped {
		return "global"
	}
	return "store:" + strconv.FormatUint(uint64(s.storeID), 10)
}
