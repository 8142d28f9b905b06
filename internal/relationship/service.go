package relationship

import (
	"errors"

	"gossipgraph/backend/internal/metrics"
	"gossipgraph/backend/internal/models"
	"gossipgraph/backend/internal/relation"
	"gossipgraph/backend/internal/store"

	"gorm.io/gorm"
)

// Business-rule outcomes. These are expected results of concurrent or
// duplicate user action and are reported to callers as values, not logged as
// failures.
var (
	ErrSelfRelation         = errors.New("cannot relate a user to themselves")
	ErrUnknownType          = errors.New("unknown relation type")
	ErrAlreadyRelated       = errors.New("relationship already exists")
	ErrRequestPending       = errors.New("request already pending")
	ErrNoRelationship       = errors.New("no active relationship to update")
	ErrNotFound             = errors.New("request not found")
	ErrRelationshipConflict = errors.New("relationship lost a concurrent race")
)

// Service drives the two-party handshake that turns proposals into edges.
// It is the only writer of relation requests.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Propose records a PENDING request for a brand-new edge.
func (s *Service) Propose(fromID, toID uint, t relation.Type) error {
	if err := s.validate(fromID, toID, t); err != nil {
		return err
	}

	edges := store.NewEdgeStore(s.db)
	existing, err := edges.FindActive(t, fromID, toID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrAlreadyRelated
	}

	return s.insertPending(fromID, toID, t)
}

// ProposeUpdate records a PENDING request to change the type of an existing
// edge. A type change is never applied unilaterally: it goes back through
// acceptance exactly like a fresh proposal.
func (s *Service) ProposeUpdate(fromID, toID uint, t relation.Type) error {
	if err := s.validate(fromID, toID, t); err != nil {
		return err
	}

	edges := store.NewEdgeStore(s.db)
	existing, err := edges.FindActive(t, fromID, toID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNoRelationship
	}

	return s.insertPending(fromID, toID, t)
}

// Accept marks the request ACCEPTED and materializes its edge in a single
// transaction. Only the addressee of a PENDING request may accept; anything
// else is ErrNotFound.
//
// When the edge upsert loses the uniqueness race to a crossing accept, the
// whole transaction rolls back: the request stays PENDING and the caller gets
// ErrRelationshipConflict, leaving the addressee free to re-decide against
// the state that won.
func (s *Service) Accept(requestID, actingUserID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var req models.RelationRequest
		err := tx.Where("id = ? AND to_id = ? AND status = ?", requestID, actingUserID, models.RequestPending).
			First(&req).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&req).Update("status", models.RequestAccepted).Error; err != nil {
			return err
		}

		_, err = store.NewEdgeStore(tx).Upsert(req.Type, req.FromID, req.ToID)
		return err
	})

	if errors.Is(err, store.ErrConflict) {
		metrics.EdgeConflicts.Inc()
		return ErrRelationshipConflict
	}
	return err
}

// Reject marks the request REJECTED iff it is PENDING and addressed to the
// acting user. Requests are terminal once decided.
func (s *Service) Reject(requestID, actingUserID uint) error {
	res := s.db.Model(&models.RelationRequest{}).
		Where("id = ? AND to_id = ? AND status = ?", requestID, actingUserID, models.RequestPending).
		Update("status", models.RequestRejected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove tombstones the relationship between userID and peerID. Removal is
// unilateral and creates no request. For a directed edge only the actor's own
// outbound row is eligible; the peer's sentiment toward the actor survives.
func (s *Service) Remove(userID, peerID uint) error {
	edges := store.NewEdgeStore(s.db)
	rows, err := edges.ActiveBetween(userID, peerID)
	if err != nil {
		return err
	}

	for _, row := range rows {
		if row.Type.Directed() && row.FromID != userID {
			continue
		}
		if _, err := edges.SoftDelete(row.Type, row.FromID, row.ToID); err != nil {
			return err
		}
	}
	return nil
}

// PendingFor lists the PENDING requests addressed to userID, newest first,
// with proposer profiles attached.
func (s *Service) PendingFor(userID uint) ([]models.RelationRequest, error) {
	var reqs []models.RelationRequest
	err := s.db.Preload("FromUser").
		Where("to_id = ? AND status = ?", userID, models.RequestPending).
		Order("id DESC").
		Find(&reqs).Error
	return reqs, err
}

func (s *Service) validate(fromID, toID uint, t relation.Type) error {
	if fromID == toID {
		return ErrSelfRelation
	}
	if !t.Valid() {
		return ErrUnknownType
	}
	return nil
}

// insertPending creates the request unless one is already pending for the
// same slot. The pending check uses the same pair predicate as the edge
// store, so crossing proposals for one undirected pair collapse into a single
// outstanding request.
func (s *Service) insertPending(fromID, toID uint, t relation.Type) error {
	var pending models.RelationRequest
	q := s.db.Where("status = ?", models.RequestPending)
	if t.Directed() {
		q = q.Where("from_id = ? AND to_id = ?", fromID, toID)
	} else {
		q = q.Where("(from_id = ? AND to_id = ?) OR (from_id = ? AND to_id = ?)", fromID, toID, toID, fromID)
	}
	err := q.First(&pending).Error
	if err == nil {
		return ErrRequestPending
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	req := models.RelationRequest{FromID: fromID, ToID: toID, Type: t, Status: models.RequestPending}
	return s.db.Create(&req).Error
}
