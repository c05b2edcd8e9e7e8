package repositories

import (
	"github.com/encoreline/backend/internal/apperrors"
	"github.com/encoreline/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository defines the interface for block relation operations.
// Blocks have an independent lifecycle: creating one leaves existing
// follows, requests, and friendships untouched.
type BlockRepository interface {
	Block(blockerID, blockedID uint) (created bool, err error)
	Unblock(blockerID, blockedID uint) (removed bool, err error)
	IsBlocked(blockerID, blockedID uint) (bool, error)
	IsBlockedBy(userID, otherID uint) (bool, error)
	ListBlocked(blockerID uint) ([]models.User, error)
}

// PostgresBlockRepository implements BlockRepository for PostgreSQL
type PostgresBlockRepository struct {
	db *gorm.DB
}

// NewPostgresBlockRepository creates a new PostgresBlockRepository
func NewPostgresBlockRepository(db *gorm.DB) *PostgresBlockRepository {
	return &PostgresBlockRepository{db: db}
}

// Block inserts a directed block row, idempotent under duplicates.
func (r *PostgresBlockRepository) Block(blockerID, blockedID uint) (bool, error) {
	if blockerID == blockedID {
		return false, apperrors.NewInvalidTarget("cannot block yourself")
	}
	block := &models.Block{BlockerID: blockerID, BlockedID: blockedID}
	res := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoNothing: true,
	}).Create(block)
	if res.Error != nil {
		if apperrors.IsDuplicate(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Unblock removes the block row; no-op when absent.
func (r *PostgresBlockRepository) Unblock(blockerID, blockedID uint) (bool, error) {
	res := r.db.Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.Block{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresBlockRepository) IsBlocked(blockerID, blockedID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Block{}).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsBlockedBy reports whether otherID has blocked userID.
func (r *PostgresBlockRepository) IsBlockedBy(userID, otherID uint) (bool, error) {
	return r.IsBlocked(otherID, userID)
}

func (r *PostgresBlockRepository) ListBlocked(blockerID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN (?)",
		r.db.Table("blocks").Select("blocked_id").Where("blocker_id = ?", blockerID),
	).Find(&users).Error
	return users, err
}
