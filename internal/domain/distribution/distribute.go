package distribution

import (
	"sort"

	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
)

// Distribute computes a bucket for every entity using strategy s.
//
// buckets must be non-empty; an empty entity list yields an empty result.
// The result is deterministic for the same input ordering. Every entity
// appears exactly once and every bucket id comes from buckets.
func Distribute(entities []Entity, buckets []string, s Strategy) (Result, error) {
	if len(buckets) == 0 {
		return Result{}, apperr.ErrNoBucketsAvailable.With("distribution.Distribute")
	}

	var order []placementIndex
	switch s {
	case StrategySimple, StrategyEqual:
		order = chunked(entities, len(buckets))
	case StrategyGender:
		order = byGender(entities, len(buckets))
	case StrategyPioneer:
		order = byPioneer(entities, len(buckets))
	case StrategyPrivilege:
		order = byPrivilege(entities, len(buckets))
	case StrategyFamily:
		order = byFamily(entities, len(buckets))
	case StrategyDifficulty:
		order = byDifficulty(entities, len(buckets))
	case StrategySize:
		order = bySize(entities, len(buckets))
	default:
		return Result{}, apperr.ErrUnknownStrategy.With("distribution.Distribute")
	}

	res := Result{Strategy: s, Placements: make([]Placement, 0, len(order))}
	for _, p := range order {
		res.Placements = append(res.Placements, Placement{
			EntityID: entities[p.entity].ID,
			BucketID: buckets[p.bucket],
		})
	}
	return res, nil
}

// placementIndex is an (entity index, bucket index) pair.
type placementIndex struct {
	entity int
	bucket int
}

// cursor is the round-robin position over n buckets.
type cursor struct {
	pos int
	n   int
}

func (c *cursor) next() int {
	b := c.pos
	c.pos = (c.pos + 1) % c.n
	return b
}

// roundRobin assigns idx in order starting from c's current position.
func roundRobin(c *cursor, idx []int, out []placementIndex) []placementIndex {
	for _, i := range idx {
		out = append(out, placementIndex{entity: i, bucket: c.next()})
	}
	return out
}

// chunked splits entities into contiguous chunks of ceil(n/buckets). The
// last bucket absorbs anything past the final full chunk so no more than
// len(buckets) partitions are ever produced.
func chunked(entities []Entity, buckets int) []placementIndex {
	n := len(entities)
	if n == 0 {
		return nil
	}
	size := (n + buckets - 1) / buckets
	out := make([]placementIndex, 0, n)
	for i := range entities {
		b := i / size
		if b > buckets-1 {
			b = buckets - 1
		}
		out = append(out, placementIndex{entity: i, bucket: b})
	}
	return out
}

// byGender round-robins males, then females continuing the same cursor.
// Entities with any other gender value follow the females.
func byGender(entities []Entity, buckets int) []placementIndex {
	var male, female, other []int
	for i, e := range entities {
		switch e.Gender {
		case GenderMale:
			male = append(male, i)
		case GenderFemale:
			female = append(female, i)
		default:
			other = append(other, i)
		}
	}
	c := &cursor{n: buckets}
	out := make([]placementIndex, 0, len(entities))
	out = roundRobin(c, male, out)
	out = roundRobin(c, female, out)
	return roundRobin(c, other, out)
}

// byPioneer round-robins pioneers from bucket 0, then everyone else from
// bucket 0 again.
func byPioneer(entities []Entity, buckets int) []placementIndex {
	var pioneers, rest []int
	for i, e := range entities {
		if e.Pioneer {
			pioneers = append(pioneers, i)
		} else {
			rest = append(rest, i)
		}
	}
	out := make([]placementIndex, 0, len(entities))
	out = roundRobin(&cursor{n: buckets}, pioneers, out)
	return roundRobin(&cursor{n: buckets}, rest, out)
}

// byPrivilege round-robins elders, then ministerial servants, then everyone
// else with a single continuous cursor.
func byPrivilege(entities []Entity, buckets int) []placementIndex {
	var elders, servants, rest []int
	for i, e := range entities {
		switch {
		case e.HasPrivilege(PrivilegeElder):
			elders = append(elders, i)
		case e.HasPrivilege(PrivilegeMinisterialServant):
			servants = append(servants, i)
		default:
			rest = append(rest, i)
		}
	}
	c := &cursor{n: buckets}
	out := make([]placementIndex, 0, len(entities))
	out = roundRobin(c, elders, out)
	out = roundRobin(c, servants, out)
	return roundRobin(c, rest, out)
}

// byFamily keeps each family unit (a head plus every entity linked to it)
// in one bucket. The cursor advances once per unit. A head that was already
// placed as part of an earlier unit pulls its own linked entities into its
// bucket without advancing the cursor. Entities outside every unit are
// round-robined individually afterwards.
func byFamily(entities []Entity, buckets int) []placementIndex {
	linked := make(map[string][]int)
	for i, e := range entities {
		if e.FamilyHeadID != "" && e.FamilyHeadID != e.ID {
			linked[e.FamilyHeadID] = append(linked[e.FamilyHeadID], i)
		}
	}

	placed := make(map[int]int, len(entities))
	out := make([]placementIndex, 0, len(entities))
	place := func(i, b int) {
		if _, done := placed[i]; done {
			return
		}
		placed[i] = b
		out = append(out, placementIndex{entity: i, bucket: b})
	}

	c := &cursor{n: buckets}
	for i, e := range entities {
		if !e.FamilyHead {
			continue
		}
		b, done := placed[i]
		if !done {
			b = c.next()
			place(i, b)
		}
		for _, m := range linked[e.ID] {
			place(m, b)
		}
	}

	for i := range entities {
		if _, done := placed[i]; !done {
			place(i, c.next())
		}
	}
	return out
}

// byDifficulty round-robins hard, then medium, then easy territories with
// one cursor. Unrated territories come last.
func byDifficulty(entities []Entity, buckets int) []placementIndex {
	var hard, medium, easy, rest []int
	for i, e := range entities {
		switch e.Difficulty {
		case DifficultyHard:
			hard = append(hard, i)
		case DifficultyMedium:
			medium = append(medium, i)
		case DifficultyEasy:
			easy = append(easy, i)
		default:
			rest = append(rest, i)
		}
	}
	c := &cursor{n: buckets}
	out := make([]placementIndex, 0, len(entities))
	for _, tier := range [][]int{hard, medium, easy, rest} {
		out = roundRobin(c, tier, out)
	}
	return out
}

// bySize orders territories by household count, largest first, and
// round-robins the sorted sequence. Ties keep roster order.
func bySize(entities []Entity, buckets int) []placementIndex {
	idx := make([]int, len(entities))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return entities[idx[a]].Households > entities[idx[b]].Households
	})
	return roundRobin(&cursor{n: buckets}, idx, make([]placementIndex, 0, len(entities)))
}
