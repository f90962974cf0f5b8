package groupassign

import (
	"context"
	"strconv"

	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"golang.org/x/sync/errgroup"
)

// BucketSummary is one group with its current composition.
type BucketSummary struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Members             int    `json:"members"`
	Elders              int    `json:"elders"`
	MinisterialServants int    `json:"ministerial_servants"`
	Pioneers            int    `json:"pioneers"`
	Territories         int    `json:"territories"`
}

type snapshot struct {
	refs        []distribution.BucketRef
	members     []distribution.Entity
	territories []distribution.Entity
}

// load reads groups and both rosters concurrently.
func (s *Service) load(ctx context.Context) (snapshot, error) {
	var (
		snap   snapshot
		groups []models.Group
	)
	eg, gctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		groups, err = s.groups.List(gctx)
		return err
	})
	eg.Go(func() error {
		var err error
		snap.members, err = s.rosters[distribution.KindMember].ListEntities(gctx)
		return err
	})
	eg.Go(func() error {
		var err error
		snap.territories, err = s.rosters[distribution.KindTerritory].ListEntities(gctx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return snapshot{}, err
	}

	snap.refs = make([]distribution.BucketRef, len(groups))
	for i, g := range groups {
		snap.refs[i] = distribution.BucketRef{ID: g.ID.Hex(), Name: g.Name}
	}
	return snap, nil
}

// ListBucketsWithCounts returns every group in name order with member,
// role and territory counts. No groups yields an empty slice.
func (s *Service) ListBucketsWithCounts(ctx context.Context) ([]BucketSummary, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, apperr.Internalf("groupassign.ListBucketsWithCounts", err, "failed to load groups")
	}

	members := distribution.Collect(snap.refs, snap.members)
	territories := distribution.Collect(snap.refs, snap.territories)

	out := make([]BucketSummary, len(snap.refs))
	for i, b := range members {
		sum := BucketSummary{
			ID:          b.ID,
			Name:        b.Name,
			Members:     len(b.Members),
			Territories: len(territories[i].Members),
		}
		for _, m := range b.Members {
			if m.HasPrivilege(distribution.PrivilegeElder) {
				sum.Elders++
			}
			if m.HasPrivilege(distribution.PrivilegeMinisterialServant) {
				sum.MinisterialServants++
			}
			if m.Pioneer {
				sum.Pioneers++
			}
		}
		out[i] = sum
	}
	return out, nil
}

// ValidateBuckets reports soft-rule violations for every group. Member
// groups are also checked for an elder and a pioneer.
func (s *Service) ValidateBuckets(ctx context.Context, kind distribution.Kind) ([]distribution.Warning, error) {
	const op = "groupassign.ValidateBuckets"
	if _, err := s.roster(op, kind); err != nil {
		return nil, err
	}
	snap, err := s.load(ctx)
	if err != nil {
		return nil, apperr.Internalf(op, err, "failed to load groups")
	}

	rules := distribution.Rules{MinSize: s.minSize, MaxSize: s.maxSize}
	entities := snap.territories
	if kind == distribution.KindMember {
		rules.RequireRoles = true
		entities = snap.members
	}
	return distribution.Validate(distribution.Collect(snap.refs, entities), rules), nil
}

// CreateGroup adds an empty group.
func (s *Service) CreateGroup(ctx context.Context, actor models.Actor, name string) (models.Group, error) {
	var created models.Group
	err := s.audit.Track(ctx, actor, audit.CategoryAdmin, audit.EventGroupCreated, func() (map[string]string, error) {
		g, err := s.groups.Create(ctx, models.Group{Name: name})
		if err != nil {
			if k := apperr.KindOf(err); k == apperr.Conflict || k == apperr.Validation {
				return nil, err
			}
			return nil, apperr.Internalf("groupassign.CreateGroup", err, "failed to create group")
		}
		created = g
		return map[string]string{"group_id": g.ID.Hex(), "group_name": g.Name}, nil
	})
	return created, err
}

// DeleteGroup removes a group and clears the group reference of every
// member and territory that pointed at it.
func (s *Service) DeleteGroup(ctx context.Context, actor models.Actor, groupID string) error {
	const op = "groupassign.DeleteGroup"
	return s.audit.Track(ctx, actor, audit.CategoryAdmin, audit.EventGroupDeleted, func() (map[string]string, error) {
		g, err := s.resolveGroup(ctx, op, groupID)
		if err != nil {
			return nil, err
		}

		var members, territories int64
		err = s.tx.Run(ctx, func(ctx context.Context) error {
			var err error
			if members, err = s.rosters[distribution.KindMember].ClearGroup(ctx, g.ID); err != nil {
				return err
			}
			if territories, err = s.rosters[distribution.KindTerritory].ClearGroup(ctx, g.ID); err != nil {
				return err
			}
			_, err = s.groups.Delete(ctx, g.ID)
			return err
		})
		if err != nil {
			return nil, apperr.Internalf(op, err, "failed to delete group")
		}
		return map[string]string{
			"group_id":            g.ID.Hex(),
			"group_name":          g.Name,
			"members_cleared":     strconv.FormatInt(members, 10),
			"territories_cleared": strconv.FormatInt(territories, 10),
		}, nil
	})
}

