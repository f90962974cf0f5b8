// Package groupassign applies the distribution engine to the stored
// member and territory rosters.
//
// Every operation reads the group list and roster fresh. A distribution is
// computed completely in memory and then committed as one batch of
// per-entity updates. Those updates are idempotent but not transactional
// as a whole: a caller-side timeout or crash mid-commit can leave a partial
// reassignment, which a rerun of the same distribution repairs.
package groupassign

import (
	"context"
	"strconv"
	"strings"

	"github.com/dalemusser/congregationhub/internal/app/store/audit"
	"github.com/dalemusser/congregationhub/internal/app/system/apperr"
	"github.com/dalemusser/congregationhub/internal/app/system/auditlog"
	"github.com/dalemusser/congregationhub/internal/app/system/metrics"
	"github.com/dalemusser/congregationhub/internal/app/system/txn"
	"github.com/dalemusser/congregationhub/internal/domain/distribution"
	"github.com/dalemusser/congregationhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Groups is the bucket repository.
type Groups interface {
	Create(ctx context.Context, g models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}

// Roster is the entity repository for one kind (members or territories).
type Roster interface {
	ListEntities(ctx context.Context) ([]distribution.Entity, error)
	FindEntities(ctx context.Context, ids []string) ([]distribution.Entity, error)
	Apply(ctx context.Context, placements []distribution.Placement) (int64, error)
	ClearGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

// Config wires a Service.
type Config struct {
	Groups      Groups
	Members     Roster
	Territories Roster
	Tx          txn.Runner
	Audit       *auditlog.Logger
	Metrics     *metrics.Metrics
	Log         *zap.Logger

	// Soft group size limits used by ValidateBuckets. Zero means default.
	MinSize int
	MaxSize int
}

type Service struct {
	groups  Groups
	rosters map[distribution.Kind]Roster
	tx      txn.Runner
	audit   *auditlog.Logger
	metrics *metrics.Metrics
	log     *zap.Logger
	minSize int
	maxSize int
}

func New(cfg Config) *Service {
	s := &Service{
		groups: cfg.Groups,
		rosters: map[distribution.Kind]Roster{
			distribution.KindMember:    cfg.Members,
			distribution.KindTerritory: cfg.Territories,
		},
		tx:      cfg.Tx,
		audit:   cfg.Audit,
		metrics: cfg.Metrics,
		log:     cfg.Log,
		minSize: cfg.MinSize,
		maxSize: cfg.MaxSize,
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.tx == nil {
		s.tx = txn.Direct{}
	}
	if s.minSize <= 0 {
		s.minSize = distribution.DefaultMinSize
	}
	if s.maxSize <= 0 {
		s.maxSize = distribution.DefaultMaxSize
	}
	return s
}

func (s *Service) roster(op string, kind distribution.Kind) (Roster, error) {
	r, ok := s.rosters[kind]
	if !ok || r == nil {
		return nil, apperr.Validationf(op, "unknown roster kind %q", kind)
	}
	return r, nil
}

func (s *Service) resolveGroup(ctx context.Context, op, groupID string) (models.Group, error) {
	oid, err := primitive.ObjectIDFromHex(groupID)
	if err != nil {
		return models.Group{}, apperr.ErrGroupNotFound.With(op)
	}
	g, err := s.groups.GetByID(ctx, oid)
	if err != nil {
		if apperr.KindOf(err) == apperr.NotFound {
			return models.Group{}, apperr.ErrGroupNotFound.With(op)
		}
		return models.Group{}, apperr.Internalf(op, err, "failed to load group")
	}
	return g, nil
}

func joinIDs(ids []string) string { return strings.Join(ids, ",") }

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// AssignEntities moves every listed entity into groupID, overwriting any
// previous group. Ids that do not resolve are skipped; the returned count
// is the number of entities written.
func (s *Service) AssignEntities(ctx context.Context, actor models.Actor, kind distribution.Kind, entityIDs []string, groupID string) (int, error) {
	const op = "groupassign.AssignEntities"
	var count int

	err := s.audit.Track(ctx, actor, audit.CategoryAssignment, audit.EventEntitiesAssigned, func() (map[string]string, error) {
		r, err := s.roster(op, kind)
		if err != nil {
			return nil, err
		}
		ids := uniqueIDs(entityIDs)
		if len(ids) == 0 {
			return nil, apperr.Validationf(op, "no entities selected")
		}
		g, err := s.resolveGroup(ctx, op, groupID)
		if err != nil {
			return nil, err
		}

		placements := make([]distribution.Placement, len(ids))
		for i, id := range ids {
			placements[i] = distribution.Placement{EntityID: id, BucketID: g.ID.Hex()}
		}
		n, err := r.Apply(ctx, placements)
		if err != nil {
			return nil, apperr.Internalf(op, err, "failed to assign entities")
		}
		count = int(n)
		s.metrics.Placed(string(kind), "assign", count)
		return map[string]string{
			"kind":       string(kind),
			"group_id":   g.ID.Hex(),
			"group_name": g.Name,
			"count":      strconv.Itoa(count),
			"entity_ids": joinIDs(ids),
		}, nil
	})
	return count, err
}

// Distribute reassigns the whole roster of kind across every current
// group using the named strategy, and returns the number of entities
// assigned.
func (s *Service) Distribute(ctx context.Context, actor models.Actor, kind distribution.Kind, strategyName string) (int, error) {
	const op = "groupassign.Distribute"
	var count int

	err := s.audit.Track(ctx, actor, audit.CategoryAssignment, audit.EventEntitiesDistributed, func() (map[string]string, error) {
		r, err := s.roster(op, kind)
		if err != nil {
			return nil, err
		}
		strategy, err := distribution.ParseStrategy(kind, strategyName)
		if err != nil {
			return nil, err
		}

		var (
			groups   []models.Group
			entities []distribution.Entity
		)
		eg, gctx := errgroup.WithContext(ctx)
		eg.Go(func() error {
			var err error
			groups, err = s.groups.List(gctx)
			return err
		})
		eg.Go(func() error {
			var err error
			entities, err = r.ListEntities(gctx)
			return err
		})
		if err := eg.Wait(); err != nil {
			return nil, apperr.Internalf(op, err, "failed to load roster")
		}

		buckets := make([]string, len(groups))
		for i, g := range groups {
			buckets[i] = g.ID.Hex()
		}
		res, err := distribution.Distribute(entities, buckets, strategy)
		if err != nil {
			return nil, err
		}

		if _, err := r.Apply(ctx, res.Placements); err != nil {
			s.log.Warn("distribution commit failed; roster may be partially reassigned",
				zap.String("kind", string(kind)),
				zap.String("strategy", string(strategy)),
				zap.Int("planned", res.Count()),
				zap.Error(err))
			return nil, apperr.Internalf(op, err, "failed to commit distribution")
		}
		count = res.Count()
		s.metrics.Distribution(string(kind), string(strategy), count)
		s.log.Info("roster distributed",
			zap.String("kind", string(kind)),
			zap.String("strategy", string(strategy)),
			zap.Int("entities", count),
			zap.Int("groups", len(buckets)))
		return map[string]string{
			"kind":     string(kind),
			"strategy": string(strategy),
			"count":    strconv.Itoa(count),
			"groups":   strconv.Itoa(len(buckets)),
		}, nil
	})
	return count, err
}

// RemoveFromBucket clears the group of each listed entity. Unknown ids are
// tolerated. The returned count is the number of entities written.
func (s *Service) RemoveFromBucket(ctx context.Context, actor models.Actor, kind distribution.Kind, entityIDs []string) (int, error) {
	const op = "groupassign.RemoveFromBucket"
	var count int

	err := s.audit.Track(ctx, actor, audit.CategoryAssignment, audit.EventEntitiesRemoved, func() (map[string]string, error) {
		r, err := s.roster(op, kind)
		if err != nil {
			return nil, err
		}
		ids := uniqueIDs(entityIDs)
		placements := make([]distribution.Placement, len(ids))
		for i, id := range ids {
			placements[i] = distribution.Placement{EntityID: id}
		}
		n, err := r.Apply(ctx, placements)
		if err != nil {
			return nil, apperr.Internalf(op, err, "failed to remove entities from group")
		}
		count = int(n)
		s.metrics.Placed(string(kind), "remove", count)
		return map[string]string{
			"kind":       string(kind),
			"count":      strconv.Itoa(count),
			"entity_ids": joinIDs(ids),
		}, nil
	})
	return count, err
}

// SwapEntities exchanges the groups of a and b. Either may be unassigned.
func (s *Service) SwapEntities(ctx context.Context, actor models.Actor, kind distribution.Kind, a, b string) error {
	const op = "groupassign.SwapEntities"

	return s.audit.Track(ctx, actor, audit.CategoryAssignment, audit.EventEntitiesSwapped, func() (map[string]string, error) {
		r, err := s.roster(op, kind)
		if err != nil {
			return nil, err
		}
		found, err := r.FindEntities(ctx, []string{a, b})
		if err != nil {
			return nil, apperr.Internalf(op, err, "failed to load entities")
		}
		byID := make(map[string]distribution.Entity, len(found))
		for _, e := range found {
			byID[e.ID] = e
		}
		ea, okA := byID[a]
		eb, okB := byID[b]
		if !okA || !okB {
			return nil, apperr.ErrEntityNotFound.With(op)
		}

		placements := []distribution.Placement{
			{EntityID: ea.ID, BucketID: eb.GroupID},
			{EntityID: eb.ID, BucketID: ea.GroupID},
		}
		err = s.tx.Run(ctx, func(ctx context.Context) error {
			_, err := r.Apply(ctx, placements)
			return err
		})
		if err != nil {
			return nil, apperr.Internalf(op, err, "failed to swap entities")
		}
		s.metrics.Placed(string(kind), "swap", 2)
		return map[string]string{
			"kind":    string(kind),
			"a":       ea.ID,
			"a_group": eb.GroupID,
			"b":       eb.ID,
			"b_group": ea.GroupID,
		}, nil
	})
}
