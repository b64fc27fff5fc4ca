// Package authz decides whether a principal may perform an action on a
// resource. Decisions are pure functions of their inputs: callers load
// ownership facts first and pass them in.
package authz

import (
	"github.com/storeup/storeup-backend/internal/app/model"
)

type Action string

const (
	ActionList   Action = "list"
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func (a Action) IsWrite() bool {
	return a == ActionCreate || a == ActionUpdate || a == ActionDelete
}

type ResourceKind string

const (
	KindStore         ResourceKind = "store"
	KindCategory      ResourceKind = "category"
	KindProduct       ResourceKind = "product"
	KindShippingAgent ResourceKind = "shipping_agent"
	KindTenantStore   ResourceKind = "tenant_store" // public subdomain endpoints
	KindUser          ResourceKind = "user"
)

// Principal is the authenticated caller. A nil *Principal is anonymous.
type Principal struct {
	UserID        uint
	Admin         bool
	OwnedStoreIDs []uint
}

func (p *Principal) Authenticated() bool {
	return p != nil
}

func (p *Principal) Owns(storeID uint) bool {
	if p == nil {
		return false
	}
	for _, id := range p.OwnedStoreIDs {
		if id == storeID {
			return true
		}
	}
	return false
}

// StoreContext is the single store a non-admin principal acts for.
// ok=false when the principal owns no store or more than one.
func (p *Principal) StoreContext() (uint, bool) {
	if p == nil || len(p.OwnedStoreIDs) != 1 {
		return 0, false
	}
	return p.OwnedStoreIDs[0], true
}

// Resource describes the target of an action. For stores, OwnerID is the
// store's owner. For scoped rows, Scope is the row's store. For creates,
// Scope is the store the new row would be stamped into.
type Resource struct {
	Kind    ResourceKind
	OwnerID *uint
	Scope   model.Scope
}

func StoreResource(s *model.Store) Resource {
	if s == nil {
		return Resource{Kind: KindStore}
	}
	return Resource{Kind: KindStore, OwnerID: s.OwnerID, Scope: model.ScopedTo(s.ID)}
}

func ScopedResource(kind ResourceKind, scope model.Scope) Resource {
	return Resource{Kind: kind, Scope: scope}
}

type Outcome int

const (
	Allow Outcome = iota
	DenyUnauthenticated
	DenyForbidden
)

type Decision struct {
	Outcome Outcome
	Reason  string
}

func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}

func allow() Decision {
	return Decision{Outcome: Allow}
}

func unauthenticated(reason string) Decision {
	return Decision{Outcome: DenyUnauthenticated, Reason: reason}
}

func forbidden(reason string) Decision {
	return Decision{Outcome: DenyForbidden, Reason: reason}
}

// Policy holds the switches that tighten the default rules.
type Policy struct {
	// OwnerScopedWrites requires store ownership (or staff) for category and
	// product writes. Off, any authenticated principal may write them.
	OwnerScopedWrites bool
}

type Guard struct {
	policy Policy
}

func NewGuard(policy Policy) *Guard {
	return &Guard{policy: policy}
}

// Authorize is deterministic and has no side effects.
func (g *Guard) Authorize(p *Principal, action Action, res Resource) Decision {
	switch res.Kind {
	case KindTenantStore:
		if action.IsWrite() {
			return forbidden("tenant endpoints are read-only")
		}
		return allow()
	case KindStore:
		return g.authorizeStore(p, action, res)
	case KindCategory, KindProduct:
		return g.authorizeCatalog(p, action, res)
	case KindShippingAgent:
		return g.authorizeShippingAgent(p, action, res)
	case KindUser:
		if !p.Authenticated() {
			return unauthenticated("authentication required")
		}
		if action == ActionList && !p.Admin {
			return forbidden("only staff can list users")
		}
		return allow()
	default:
		return forbidden("unknown resource")
	}
}

func (g *Guard) authorizeStore(p *Principal, action Action, res Resource) Decision {
	if !action.IsWrite() {
		return allow()
	}
	if !p.Authenticated() {
		return unauthenticated("authentication required to modify stores")
	}
	if action == ActionCreate || p.Admin {
		return allow()
	}
	if res.OwnerID != nil && *res.OwnerID == p.UserID {
		return allow()
	}
	return forbidden("only the store owner can modify this store")
}

func (g *Guard) authorizeCatalog(p *Principal, action Action, res Resource) Decision {
	if !action.IsWrite() {
		return allow()
	}
	if !p.Authenticated() {
		return unauthenticated("authentication required to modify the catalog")
	}
	if p.Admin || !g.policy.OwnerScopedWrites {
		return allow()
	}
	storeID, scoped := res.Scope.StoreID()
	if !scoped {
		return forbidden("only staff can modify global catalog entries")
	}
	if p.Owns(storeID) {
		return allow()
	}
	return forbidden("only the store owner can modify this store's catalog")
}

func (g *Guard) authorizeShippingAgent(p *Principal, action Action, res Resource) Decision {
	if !p.Authenticated() {
		return unauthenticated("authentication required for shipping agents")
	}
	if p.Admin || !action.IsWrite() {
		return allow()
	}
	storeID, ok := p.StoreContext()
	if !ok {
		return forbidden("a single store context is required to manage shipping agents")
	}
	if target, scoped := res.Scope.StoreID(); scoped && target != storeID {
		return forbidden("shipping agent belongs to another store")
	}
	return allow()
}

// ListScope describes which rows a list operation may return.
type ListScope struct {
	All      bool
	StoreIDs []uint // when !All, rows of these stores only
	OwnerID  uint   // when !All for stores, rows owned by this user
}

// StoreListScope: staff and anonymous callers see every store,
// everyone else sees only the stores they own.
func (g *Guard) StoreListScope(p *Principal) ListScope {
	if !p.Authenticated() || p.Admin {
		return ListScope{All: true}
	}
	return ListScope{OwnerID: p.UserID}
}

// ShippingAgentListScope: staff see every agent, owners see their stores' agents.
func (g *Guard) ShippingAgentListScope(p *Principal) ListScope {
	if p.Authenticated() && p.Admin {
		return ListScope{All: true}
	}
	if !p.Authenticated() {
		return ListScope{StoreIDs: []uint{}}
	}
	ids := make([]uint, len(p.OwnedStoreIDs))
	copy(ids, p.OwnedStoreIDs)
	return ListScope{StoreIDs: ids}
}

// CanStampInto reports whether p may create rows scoped to storeID.
// Stamping is stricter than the default catalog write rule: a principal
// never creates rows inside somebody else's store.
func (g *Guard) CanStampInto(p *Principal, storeID uint) Decision {
	if !p.Authenticated() {
		return unauthenticated("authentication required")
	}
	if p.Admin || p.Owns(storeID) {
		return allow()
	}
	return forbidden("cannot create records in a store you do not own")
}
