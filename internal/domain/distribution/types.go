// Package distribution assigns a roster of entities (members or
// territories) to a fixed list of groups.
//
// The package is pure: it never touches storage. Callers read the roster
// and the group list fresh, call Distribute to compute the complete target
// assignment in memory, and then commit the resulting Placements.
//
// Strategies differ in how they order entities and how they advance the
// round-robin cursor. Those differences are observable and intentional:
//
//   - gender, privilege, difficulty: tiers concatenated, one cursor
//   - pioneer: each subset gets its own pass starting at bucket 0
//   - family: the cursor advances once per family unit
//   - simple, equal: contiguous chunks, last bucket absorbs the remainder
//   - size: sorted by households descending, one cursor
package distribution

// Kind identifies which roster an entity comes from.
type Kind string

const (
	KindMember    Kind = "member"
	KindTerritory Kind = "territory"
)

// Gender values recognized by the gender strategy.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Privilege tiers recognized by the privilege strategy and validation.
const (
	PrivilegeElder              = "Elder"
	PrivilegeMinisterialServant = "Ministerial Servant"
)

// Difficulty tiers recognized by the difficulty strategy.
const (
	DifficultyHard   = "hard"
	DifficultyMedium = "medium"
	DifficultyEasy   = "easy"
)

// Entity is the balancing view of a member or territory. Only the fields
// relevant to the selected strategy need to be populated.
type Entity struct {
	ID      string
	Name    string
	GroupID string // current bucket; "" when unassigned

	// member attributes
	Gender       string
	Pioneer      bool
	Privileges   []string
	FamilyHead   bool
	FamilyHeadID string // id of the family head this entity is linked to

	// territory attributes
	Difficulty string
	Households int
}

// HasPrivilege reports whether e holds the named privilege.
func (e Entity) HasPrivilege(p string) bool {
	for _, have := range e.Privileges {
		if have == p {
			return true
		}
	}
	return false
}

// Placement is one entity's target bucket.
type Placement struct {
	EntityID string
	BucketID string
}

// Result is the outcome of Distribute. Placements are in the order the
// strategy assigned them, which is the order they should be committed.
type Result struct {
	Strategy   Strategy
	Placements []Placement
}

// Count returns the number of entities assigned.
func (r Result) Count() int { return len(r.Placements) }

// ByEntity returns the placements keyed by entity id.
func (r Result) ByEntity() map[string]string {
	m := make(map[string]string, len(r.Placements))
	for _, p := range r.Placements {
		m[p.EntityID] = p.BucketID
	}
	return m
}
