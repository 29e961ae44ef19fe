package repositories

import (
	"github.com/regami-app/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository defines the interface for the durable notification feed
type NotificationRepository interface {
	// Append stores the notification and fills in its per-recipient sequence
	// number. Sequence allocation and the insert happen in one transaction,
	// so from the recipient's point of view seqs are strictly increasing
	// with no gaps.
	Append(n *models.Notification) error
	ListSince(recipientID uint, sinceSeq uint64, limit int) ([]models.Notification, error)
	UnreadCount(recipientID uint) (int64, error)
	MarkRead(id, recipientID uint) error
	MarkAllRead(recipientID uint) error
}

// PostgresNotificationRepository implements NotificationRepository for PostgreSQL
type PostgresNotificationRepository struct {
	db *gorm.DB
}

// NewPostgresNotificationRepository creates a new PostgresNotificationRepository
func NewPostgresNotificationRepository(db *gorm.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// Append allocates the next sequence number for the recipient and inserts the
// notification in the same transaction. Allocation is a single insert with an
// on-conflict increment, so it is atomic even for a user's very first
// notification; the conflict update takes a write lock on the recipient's
// counter row, which serializes allocation per user while unrelated users'
// appends proceed independently.
func (r *PostgresNotificationRepository) Append(n *models.Notification) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_seq": gorm.Expr("notification_sequences.last_seq + 1"),
			}),
		}).Create(&models.NotificationSequence{UserID: n.RecipientID, LastSeq: 1}).Error
		if err != nil {
			return err
		}

		var seq models.NotificationSequence
		if err := tx.Where("user_id = ?", n.RecipientID).First(&seq).Error; err != nil {
			return err
		}
		n.Seq = seq.LastSeq
		return tx.Create(n).Error
	})
}

// ListSince returns the recipient's notifications with seq > sinceSeq in
// sequence order. This is the backfill query behind reconnect catch-up.
func (r *PostgresNotificationRepository) ListSince(recipientID uint, sinceSeq uint64, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	q := r.db.Where("recipient_id = ? AND seq > ?", recipientID, sinceSeq).Order("seq ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&notifications).Error
	return notifications, err
}

// UnreadCount returns the number of unread notifications for a recipient
func (r *PostgresNotificationRepository) UnreadCount(recipientID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	return count, err
}

// MarkRead flips a single notification to read. The recipient filter keeps
// users from touching each other's feeds.
func (r *PostgresNotificationRepository) MarkRead(id, recipientID uint) error {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ?", id, recipientID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MarkAllRead flips all unread notifications for a recipient
func (r *PostgresNotificationRepository) MarkAllRead(recipientID uint) error {
	return r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}
