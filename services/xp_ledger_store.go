package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/churchquest/xpcore/models"
)

// LedgerStore is the append-only XP ledger. It only ever inserts.
type LedgerStore struct{}

// Append inserts entries in order.
func (LedgerStore) Append(tx *gorm.DB, entries ...*models.XPLedger) error {
	for _, e := range entries {
		if err := tx.Create(e).Error; err != nil {
			return err
		}
	}
	return nil
}

// SumGrantedBetween returns the XP granted to a user in [start, end).
func (LedgerStore) SumGrantedBetween(tx *gorm.DB, userID string, start, end time.Time) (int, error) {
	var sum int64
	err := tx.Model(&models.XPLedger{}).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, start.UTC(), end.UTC()).
		Select("COALESCE(SUM(xp_granted),0)").
		Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	return int(sum), nil
}

// ListByUser pages a user's ledger newest first.
func (LedgerStore) ListByUser(db *gorm.DB, userID string, limit, offset int) ([]models.XPLedger, int64, error) {
	var total int64
	if err := db.Model(&models.XPLedger{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []models.XPLedger
	if err := db.Where("user_id = ?", userID).Order("created_at DESC").Order("id").Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
