package repositories

import (
	"errors"
	"time"

	"github.com/regami-app/backend/internal/models"
	"gorm.io/gorm"
)

// MatchRepository defines the interface for match data operations
type MatchRepository interface {
	// CreatePendingMatch inserts a pending match for the pair, or returns the
	// existing match for that pair. The boolean reports whether a new row was
	// created.
	CreatePendingMatch(offerID, requestID uint) (*models.Match, bool, error)
	GetMatchByID(id uint) (*models.Match, error)
	// TransitionMatch applies from→to iff the match still has status `from`
	// and last-transition timestamp `version`, stamping `at` as the new
	// last-transition timestamp. Returns false when the predicate did not
	// hold (a concurrent writer won).
	TransitionMatch(id uint, from, to models.MatchStatus, actorID uint, version, at time.Time) (bool, error)
	ListByUser(userID uint, status models.MatchStatus) ([]models.Match, error)
}

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *gorm.DB
}

// NewPostgresMatchRepository creates a new PostgresMatchRepository
func NewPostgresMatchRepository(db *gorm.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

// CreatePendingMatch is the conditional insert behind duplicate-match
// avoidance. The read and the insert run in one transaction, and the unique
// index on (offer_id, request_id) is the backstop: if two scans race past
// the read, one insert fails with a duplicate key and we return the row the
// winner created.
func (r *PostgresMatchRepository) CreatePendingMatch(offerID, requestID uint) (*models.Match, bool, error) {
	var match *models.Match
	created := false

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Match
		err := tx.Where("offer_id = ? AND request_id = ?", offerID, requestID).
			First(&existing).Error
		if err == nil {
			match = &existing
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		m := models.Match{
			OfferID:   offerID,
			RequestID: requestID,
			Status:    models.MatchPending,
		}
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		match = &m
		created = true
		return nil
	})

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// Lost the race; the pair now has a row.
		var existing models.Match
		if err := r.db.Where("offer_id = ? AND request_id = ?", offerID, requestID).
			First(&existing).Error; err != nil {
			return nil, false, err
		}
		return &existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return match, created, nil
}

// GetMatchByID retrieves a match by ID
func (r *PostgresMatchRepository) GetMatchByID(id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.First(&match, id).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// TransitionMatch performs the optimistic state change. No row lock: a
// losing concurrent writer simply matches zero rows.
func (r *PostgresMatchRepository) TransitionMatch(id uint, from, to models.MatchStatus, actorID uint, version, at time.Time) (bool, error) {
	res := r.db.Model(&models.Match{}).
		Where("id = ? AND status = ? AND updated_at = ?", id, from, version).
		Updates(map[string]interface{}{
			"status":        to,
			"last_actor_id": actorID,
			"updated_at":    at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByUser retrieves matches where the user owns either side, most recently
// updated first. Pass an empty status to list all.
func (r *PostgresMatchRepository) ListByUser(userID uint, status models.MatchStatus) ([]models.Match, error) {
	q := r.db.Model(&models.Match{}).
		Joins("JOIN availability_offers ON availability_offers.id = matches.offer_id").
		Joins("JOIN availability_requests ON availability_requests.id = matches.request_id").
		Where("availability_offers.user_id = ? OR availability_requests.user_id = ?", userID, userID)
	if status != "" {
		q = q.Where("matches.status = ?", status)
	}

	var matches []models.Match
	err := q.Order("matches.updated_at DESC").Find(&matches).Error
	return matches, err
}
