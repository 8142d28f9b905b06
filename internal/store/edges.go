package store

import (
	"errors"
	"time"

	"gossipgraph/backend/internal/models"
	"gossipgraph/backend/internal/relation"

	"gorm.io/gorm"
)

// ErrConflict signals that a write lost a race at the (from_id, to_id)
// uniqueness constraint. This is the store's only mutual-exclusion primitive:
// two crossing accepts racing to materialize the same canonical edge resolve
// here, not through application-level locking. Callers must not retry blindly.
var ErrConflict = errors.New("relationship already exists for canonical pair")

// EdgeStore is the sole writer of relationship rows. Construct it over a
// transaction handle to make a sequence of edge writes atomic.
type EdgeStore struct {
	db *gorm.DB
}

func NewEdgeStore(db *gorm.DB) *EdgeStore {
	return &EdgeStore{db: db}
}

// pairWhere scopes a query to the edge slot for (a, b). The requested type
// only determines the shape of the predicate: exact pair for directed types,
// either-order match for undirected. It deliberately does not filter on the
// stored type, so a pair occupied by any edge counts as occupied.
func pairWhere(db *gorm.DB, t relation.Type, a, b uint) *gorm.DB {
	if t.Directed() {
		return db.Where("from_id = ? AND to_id = ?", a, b)
	}
	return db.Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a)
}

// FindActive returns the live edge occupying the slot for (a, b), or nil.
func (s *EdgeStore) FindActive(t relation.Type, a, b uint) (*models.Relationship, error) {
	var edge models.Relationship
	err := pairWhere(s.db.Model(&models.Relationship{}), t, a, b).
		Where("deleted_at IS NULL").
		First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Upsert materializes the edge (from, to, type). An existing row for the
// canonical pair, tombstoned or not, is revived and retyped in place; rows
// are never duplicated. If a concurrent writer inserts the same canonical
// pair first, the uniqueness constraint fires and the caller observes
// ErrConflict.
func (s *EdgeStore) Upsert(t relation.Type, from, to uint) (*models.Relationship, error) {
	cf, ct := relation.Canonicalize(t, from, to)

	var existing models.Relationship
	err := pairWhere(s.db.Model(&models.Relationship{}), t, cf, ct).First(&existing).Error
	switch {
	case err == nil:
		updates := map[string]interface{}{
			"from_id":    cf,
			"to_id":      ct,
			"type":       t,
			"deleted_at": nil,
		}
		if err := s.db.Model(&existing).Updates(updates).Error; err != nil {
			return nil, asConflict(err)
		}
		existing.FromID, existing.ToID, existing.Type, existing.DeletedAt = cf, ct, t, nil
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		edge := models.Relationship{FromID: cf, ToID: ct, Type: t}
		if err := s.db.Create(&edge).Error; err != nil {
			return nil, asConflict(err)
		}
		return &edge, nil
	default:
		return nil, err
	}
}

// SoftDelete tombstones the edge occupying the slot for (from, to). For
// directed types only the exact direction is affected. Returns false when no
// live edge occupied the slot.
func (s *EdgeStore) SoftDelete(t relation.Type, from, to uint) (bool, error) {
	now := time.Now()
	res := pairWhere(s.db.Model(&models.Relationship{}), t, from, to).
		Where("deleted_at IS NULL").
		Updates(map[string]interface{}{"deleted_at": now})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ActiveBetween returns every live edge touching both a and b, in either
// direction and of any type. Used by removal to decide per-row eligibility.
func (s *EdgeStore) ActiveBetween(a, b uint) ([]models.Relationship, error) {
	var edges []models.Relationship
	err := s.db.
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Where("deleted_at IS NULL").
		Find(&edges).Error
	return edges, err
}

// TouchMessageCursor records the newest message between a and b on their
// edge. This is the write hook for the messaging collaborator: message bodies
// live elsewhere, only the cursor is denormalized here so the change-feed
// fingerprint observes new messages through the edge's updated_at.
func (s *EdgeStore) TouchMessageCursor(a, b uint, msgID uint, at time.Time) error {
	res := s.db.Model(&models.Relationship{}).
		Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", a, b, b, a).
		Where("deleted_at IS NULL").
		Updates(map[string]interface{}{"last_msg_id": msgID, "last_msg_time": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// asConflict maps the driver's unique-violation error to ErrConflict. Losing
// the race is an expected outcome under concurrency, not an infrastructure
// failure, so it gets its own sentinel for callers to branch on.
func asConflict(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrConflict
	}
	return err
}
