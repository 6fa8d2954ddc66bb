package ledger

import (
	"context"
	"fmt"
	"iter"

	"gorm.io/gorm"

	"parking-session-backend/internal/db"
	"parking-session-backend/internal/model"
)

const defaultPageSize = 50

// Ledger is the append-only trip history, newest first.
type Ledger struct {
	db         *gorm.DB
	maxRecords int
	pageSize   int
}

// New creates a ledger over the trip_records table. maxRecords > 0 keeps only
// that many newest records. Calls join a transaction carried by the context.
func New(gormDB *gorm.DB, maxRecords int) *Ledger {
	return &Ledger{db: gormDB, maxRecords: maxRecords, pageSize: defaultPageSize}
}

// Append stores rec as the newest record.
func (l *Ledger) Append(ctx context.Context, rec model.TripRecord) error {
	rec.ID = 0
	return db.Conn(ctx, l.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return fmt.Errorf("failed to append trip record for place %d: %w", rec.PlaceID, err)
		}
		if l.maxRecords <= 0 {
			return nil
		}
		return trimOldest(tx, l.maxRecords)
	})
}

// trimOldest deletes everything older than the keep newest records.
func trimOldest(tx *gorm.DB, keep int) error {
	var cutoff []int64
	if err := tx.Model(&model.TripRecord{}).
		Order("id DESC").
		Offset(keep).
		Limit(1).
		Pluck("id", &cutoff).Error; err != nil {
		return fmt.Errorf("failed to find ledger cutoff: %w", err)
	}
	if len(cutoff) == 0 {
		return nil
	}
	if err := tx.Where("id <= ?", cutoff[0]).Delete(&model.TripRecord{}).Error; err != nil {
		return fmt.Errorf("failed to trim ledger: %w", err)
	}
	return nil
}

// All yields every record, newest first, fetching pages lazily. Each call
// starts a fresh pass. A query error is yielded once and ends the sequence.
func (l *Ledger) All(ctx context.Context) iter.Seq2[model.TripRecord, error] {
	return func(yield func(model.TripRecord, error) bool) {
		var before int64
		for {
			var page []model.TripRecord
			q := db.Conn(ctx, l.db).Order("id DESC").Limit(l.pageSize)
			if before > 0 {
				q = q.Where("id < ?", before)
			}
			if err := q.Find(&page).Error; err != nil {
				yield(model.TripRecord{}, fmt.Errorf("failed to read trip records: %w", err))
				return
			}
			for _, rec := range page {
				if !yield(rec, nil) {
					return
				}
			}
			if len(page) < l.pageSize {
				return
			}
			before = page[len(page)-1].ID
		}
	}
}

// Recent collects up to limit records, newest first. limit <= 0 means all.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]model.TripRecord, error) {
	records := []model.TripRecord{}
	for rec, err := range l.All(ctx) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, nil
}

// Count returns the number of stored records.
func (l *Ledger) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := db.Conn(ctx, l.db).Model(&model.TripRecord{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count trip records: %w", err)
	}
	return n, nil
}

// Clear removes every record.
func (l *Ledger) Clear(ctx context.Context) error {
	if err := db.Conn(ctx, l.db).Where("1 = 1").Delete(&model.TripRecord{}).Error; err != nil {
		return fmt.Errorf("failed to clear trip records: %w", err)
	}
	return nil
}
