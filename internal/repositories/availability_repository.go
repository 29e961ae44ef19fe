package repositories

import (
	"time"

	"github.com/regami-app/backend/internal/geo"
	"github.com/regami-app/backend/internal/models"
	"gorm.io/gorm"
)

// AvailabilityRepository defines the interface for offer and request data operations
type AvailabilityRepository interface {
	CreateOffer(offer *models.AvailabilityOffer) error
	CreateRequest(req *models.AvailabilityRequest) error
	UpdateOffer(offer *models.AvailabilityOffer) error
	UpdateRequest(req *models.AvailabilityRequest) error
	GetOfferByID(id uint) (*models.AvailabilityOffer, error)
	GetRequestByID(id uint) (*models.AvailabilityRequest, error)
	WithdrawOffer(id uint) error
	WithdrawRequest(id uint) error
	ListOffersByUser(userID uint) ([]models.AvailabilityOffer, error)
	ListRequestsByUser(userID uint) ([]models.AvailabilityRequest, error)
	RequestsOverlapping(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error)
	OffersOverlapping(req *models.AvailabilityRequest) ([]models.AvailabilityOffer, error)
	ExpireStale(now time.Time) (int64, error)
}

// PostgresAvailabilityRepository implements AvailabilityRepository for PostgreSQL
type PostgresAvailabilityRepository struct {
	db *gorm.DB
}

// NewPostgresAvailabilityRepository creates a new PostgresAvailabilityRepository
func NewPostgresAvailabilityRepository(db *gorm.DB) *PostgresAvailabilityRepository {
	return &PostgresAvailabilityRepository{db: db}
}

// CreateOffer persists a new care offer
func (r *PostgresAvailabilityRepository) CreateOffer(offer *models.AvailabilityOffer) error {
	offer.Status = models.AvailabilityOpen
	return r.db.Create(offer).Error
}

// CreateRequest persists a new care request
func (r *PostgresAvailabilityRepository) CreateRequest(req *models.AvailabilityRequest) error {
	req.Status = models.AvailabilityOpen
	return r.db.Create(req).Error
}

// UpdateOffer saves changes to an existing offer
func (r *PostgresAvailabilityRepository) UpdateOffer(offer *models.AvailabilityOffer) error {
	return r.db.Save(offer).Error
}

// UpdateRequest saves changes to an existing request
func (r *PostgresAvailabilityRepository) UpdateRequest(req *models.AvailabilityRequest) error {
	return r.db.Save(req).Error
}

// GetOfferByID retrieves an offer by ID
func (r *PostgresAvailabilityRepository) GetOfferByID(id uint) (*models.AvailabilityOffer, error) {
	var offer models.AvailabilityOffer
	if err := r.db.First(&offer, id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetRequestByID retrieves a request by ID
func (r *PostgresAvailabilityRepository) GetRequestByID(id uint) (*models.AvailabilityRequest, error) {
	var req models.AvailabilityRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// WithdrawOffer marks an open offer as withdrawn. Existing matches are left
// alone; withdrawal only stops new matches from being created.
func (r *PostgresAvailabilityRepository) WithdrawOffer(id uint) error {
	res := r.db.Model(&models.AvailabilityOffer{}).
		Where("id = ? AND status = ?", id, models.AvailabilityOpen).
		Update("status", models.AvailabilityWithdrawn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// WithdrawRequest marks an open request as withdrawn
func (r *PostgresAvailabilityRepository) WithdrawRequest(id uint) error {
	res := r.db.Model(&models.AvailabilityRequest{}).
		Where("id = ? AND status = ?", id, models.AvailabilityOpen).
		Update("status", models.AvailabilityWithdrawn)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListOffersByUser retrieves all offers posted by a user, newest window first
func (r *PostgresAvailabilityRepository) ListOffersByUser(userID uint) ([]models.AvailabilityOffer, error) {
	var offers []models.AvailabilityOffer
	err := r.db.Where("user_id = ?", userID).Order("start_at DESC").Find(&offers).Error
	return offers, err
}

// ListRequestsByUser retrieves all requests posted by a user, newest window first
func (r *PostgresAvailabilityRepository) ListRequestsByUser(userID uint) ([]models.AvailabilityRequest, error) {
	var reqs []models.AvailabilityRequest
	err := r.db.Where("user_id = ?", userID).Order("start_at DESC").Find(&reqs).Error
	return reqs, err
}

// RequestsOverlapping returns open requests from other users whose interval
// intersects the offer's interval and whose own radius covers the distance
// to the offer's location. Intervals are half-open, so the SQL predicate
// start_at < end AND end_at > start is exactly max(starts) < min(ends).
// Records whose window has fully passed are excluded even if the expiry
// sweep has not flipped their status yet.
// The radius bound is the seeker's, which is why it is applied per row here
// rather than in SQL.
func (r *PostgresAvailabilityRepository) RequestsOverlapping(offer *models.AvailabilityOffer) ([]models.AvailabilityRequest, error) {
	var candidates []models.AvailabilityRequest
	err := r.db.
		Where("status = ? AND user_id <> ? AND start_at < ? AND end_at > ? AND end_at > ?",
			models.AvailabilityOpen, offer.UserID, offer.EndAt, offer.StartAt, time.Now()).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	reqs := candidates[:0]
	for _, req := range candidates {
		if geo.Distance(offer.Lat, offer.Lng, req.Lat, req.Lng) <= req.RadiusM {
			reqs = append(reqs, req)
		}
	}
	return reqs, nil
}

// OffersOverlapping is the symmetric query used when a request is created
// after existing offers. The distance bound is still the request's radius.
func (r *PostgresAvailabilityRepository) OffersOverlapping(req *models.AvailabilityRequest) ([]models.AvailabilityOffer, error) {
	var candidates []models.AvailabilityOffer
	err := r.db.
		Where("status = ? AND user_id <> ? AND start_at < ? AND end_at > ? AND end_at > ?",
			models.AvailabilityOpen, req.UserID, req.EndAt, req.StartAt, time.Now()).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	offers := candidates[:0]
	for _, offer := range candidates {
		if geo.Distance(offer.Lat, offer.Lng, req.Lat, req.Lng) <= req.RadiusM {
			offers = append(offers, offer)
		}
	}
	return offers, nil
}

// ExpireStale flips open offers and requests whose window has fully passed
// to expired. Returns the number of rows changed.
func (r *PostgresAvailabilityRepository) ExpireStale(now time.Time) (int64, error) {
	var total int64
	res := r.db.Model(&models.AvailabilityOffer{}).
		Where("status = ? AND end_at <= ?", models.AvailabilityOpen, now).
		Update("status", models.AvailabilityExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	total += res.RowsAffected

	res = r.db.Model(&models.AvailabilityRequest{}).
		Where("status = ? AND end_at <= ?", models.AvailabilityOpen, now).
		Update("status", models.AvailabilityExpired)
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected
	return total, nil
}
