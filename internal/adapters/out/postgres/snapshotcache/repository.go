package snapshotcache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
	"ordertrack/internal/pkg/errs"
)

func errInvalidSnapshotRow(id uuid.UUID) error {
	return errs.NewValueIsInvalidErrorWithCause("snapshot row",
		fmt.Errorf("row %s is missing required columns", id))
}

// GormSnapshotRepository performs row-level snapshot persistence. Run it
// inside a unit of work when replacing a parent together with its sub-order
// rows.
type GormSnapshotRepository struct {
	db      *gorm.DB
	tracker ports.AggregateTracker
}

// NewGormSnapshotRepository creates a repository on the given connection,
// which may be a transaction.
func NewGormSnapshotRepository(db *gorm.DB, tracker ports.AggregateTracker) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db, tracker: tracker}
}

// Replace upserts the order's rows and deletes sub-order rows that are no
// longer part of the order.
func (r *GormSnapshotRepository) Replace(ctx context.Context, o *order.Order, syncedAt time.Time) error {
	if o == nil {
		return errs.NewValueIsRequiredError("order")
	}

	rows, err := fromDomain(o, syncedAt)
	if err != nil {
		return err
	}

	keep := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		keep = append(keep, row.ID)
	}

	err = r.db.WithContext(ctx).
		Where("parent_id = ? AND id NOT IN ?", o.ID().Bytes(), keep).
		Delete(&SnapshotDTO{}).Error
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
	if err != nil {
		return err
	}

	if r.tracker != nil {
		r.tracker.TrackAggregate(o.ID(), o)
	}
	return nil
}

// Find rehydrates one cached top-level order with its sub-order rows.
func (r *GormSnapshotRepository) Find(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	var dto SnapshotDTO
	err := r.db.WithContext(ctx).
		Where("id = ? AND parent_id IS NULL", id.Bytes()).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("orderID", id)
		}
		return nil, err
	}

	subRows, err := r.findSubRows(ctx, dto.ID)
	if err != nil {
		return nil, err
	}

	return toDomain(dto, subRows)
}

// FindActive rehydrates all cached top-level orders that are neither
// delivered nor cancelled.
func (r *GormSnapshotRepository) FindActive(ctx context.Context) ([]*order.Order, error) {
	var dtos []SnapshotDTO
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL AND stage NOT IN ?",
			[]int{int(order.StageDelivered), int(order.StageCancelled)}).
		Order("created_at DESC").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	orders := make([]*order.Order, 0, len(dtos))
	for _, dto := range dtos {
		subRows, subErr := r.findSubRows(ctx, dto.ID)
		if subErr != nil {
			return nil, subErr
		}
		o, domainErr := toDomain(dto, subRows)
		if domainErr != nil {
			return nil, domainErr
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (r *GormSnapshotRepository) findSubRows(ctx context.Context, parentID uuid.UUID) ([]SnapshotDTO, error) {
	var subRows []SnapshotDTO
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("id").
		Find(&subRows).Error
	if err != nil {
		return nil, err
	}
	return subRows, nil
}
