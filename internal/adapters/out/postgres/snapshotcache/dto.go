// Package snapshotcache persists last-known-good order projections. Parent
// orders and their sub-orders share one table: a sub-order row carries its
// parent's id, a top-level row has none. Stage, total and item count are
// precomputed on write so list queries never rehydrate aggregates.
package snapshotcache

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
)

// SnapshotDTO is one snapshot row, either a top-level order or a sub-order.
type SnapshotDTO struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ParentID      *uuid.UUID `gorm:"type:uuid;index"`
	CustomerID    *uuid.UUID `gorm:"type:uuid;index"`
	ProviderID    *uuid.UUID `gorm:"type:uuid"`
	ProviderName  string
	Status        string
	CourierStatus string
	Stage         int `gorm:"index"`
	IsParent      bool
	Items         []byte `gorm:"type:jsonb"`
	DeliveryFee   float64
	Price         float64
	Total         float64
	ItemCount     int
	Address       string
	Note          string
	CourierID     *uuid.UUID `gorm:"type:uuid"`
	CourierName   string
	CourierPhone  string
	CreatedAt     time.Time
	SyncedAt      time.Time
}

// TableName overrides GORM's naming convention.
func (SnapshotDTO) TableName() string {
	return "order_snapshots"
}

type itemRecord struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

func itemsToJSON(items []order.LineItem) ([]byte, int, error) {
	records := make([]itemRecord, 0, len(items))
	count := 0
	for _, item := range items {
		records = append(records, itemRecord{
			ID:        item.ID().String(),
			Name:      item.Name(),
			UnitPrice: item.UnitPrice(),
			Quantity:  item.Quantity(),
			Note:      item.Note(),
		})
		count += item.Quantity()
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return nil, 0, err
	}
	return raw, count, nil
}

func itemsFromJSON(raw []byte) ([]order.LineItem, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var records []itemRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	items := make([]order.LineItem, 0, len(records))
	for _, record := range records {
		id, err := kernel.UUIDFromString(record.ID)
		if err != nil {
			return nil, err
		}
		item, err := order.NewLineItem(id, record.Name, record.UnitPrice, record.Quantity, record.Note)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func courierColumns(courier *order.Courier) (*uuid.UUID, string, string) {
	if courier == nil {
		return nil, "", ""
	}
	id := courier.ID().Bytes()
	return &id, courier.Name(), courier.Phone()
}

func optionalUUID(id kernel.UUID) *uuid.UUID {
	if id.Validate() != nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

// fromDomain maps an order to its snapshot rows: one top-level row plus one
// per sub-order. Stage, total and item count are computed here.
func fromDomain(o *order.Order, syncedAt time.Time) ([]SnapshotDTO, error) {
	items, itemCount, err := itemsToJSON(o.Items())
	if err != nil {
		return nil, err
	}

	total := o.ItemsTotal() + o.DeliveryFee()
	courierID, courierName, courierPhone := courierColumns(o.Courier())
	customerID := o.CustomerID().Bytes()

	rows := make([]SnapshotDTO, 0, 1+len(o.SubOrders()))
	rows = append(rows, SnapshotDTO{
		ID:            o.ID().Bytes(),
		CustomerID:    &customerID,
		ProviderID:    optionalUUID(o.ProviderID()),
		ProviderName:  o.ProviderName(),
		Status:        o.RawStatus(),
		CourierStatus: o.RawCourierStatus(),
		Stage:         int(o.Stage()),
		IsParent:      o.IsParent(),
		Items:         items,
		DeliveryFee:   o.DeliveryFee(),
		Total:         total,
		ItemCount:     itemCount,
		Address:       o.Address(),
		Note:          o.Note(),
		CourierID:     courierID,
		CourierName:   courierName,
		CourierPhone:  courierPhone,
		CreatedAt:     o.CreatedAt(),
		SyncedAt:      syncedAt,
	})

	parentID := o.ID().Bytes()
	parentTotal := o.DeliveryFee()
	parentItemCount := 0

	for _, sub := range o.SubOrders() {
		subItems, subCount, subErr := itemsToJSON(sub.Items())
		if subErr != nil {
			return nil, subErr
		}
		subCourierID, subCourierName, subCourierPhone := courierColumns(sub.Courier())
		providerID := sub.ProviderID().Bytes()

		pid := parentID
		rows = append(rows, SnapshotDTO{
			ID:            sub.ID().Bytes(),
			ParentID:      &pid,
			ProviderID:    &providerID,
			ProviderName:  sub.ProviderName(),
			Status:        sub.RawStatus(),
			CourierStatus: sub.RawCourierStatus(),
			Stage:         int(sub.Stage()),
			Items:         subItems,
			Price:         sub.Price(),
			Total:         sub.EffectiveTotal(),
			ItemCount:     subCount,
			CourierID:     subCourierID,
			CourierName:   subCourierName,
			CourierPhone:  subCourierPhone,
			CreatedAt:     o.CreatedAt(),
			SyncedAt:      syncedAt,
		})

		parentTotal += sub.EffectiveTotal()
		parentItemCount += subCount
	}

	if o.IsParent() {
		rows[0].Total = parentTotal
		rows[0].ItemCount = parentItemCount
	}

	return rows, nil
}

func courierFromColumns(id *uuid.UUID, name, phone string) (*order.Courier, error) {
	if id == nil || name == "" {
		return nil, nil
	}

	courierID, err := kernel.UUIDFromBytes((*id)[:])
	if err != nil {
		return nil, err
	}
	courier, err := order.NewCourier(courierID, name, phone)
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func subOrderToDomain(dto SnapshotDTO) (order.SubOrder, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return order.SubOrder{}, err
	}
	parentID, err := kernel.UUIDFromBytes((*dto.ParentID)[:])
	if err != nil {
		return order.SubOrder{}, err
	}
	providerID, err := kernel.UUIDFromBytes((*dto.ProviderID)[:])
	if err != nil {
		return order.SubOrder{}, err
	}
	items, err := itemsFromJSON(dto.Items)
	if err != nil {
		return order.SubOrder{}, err
	}
	courier, err := courierFromColumns(dto.CourierID, dto.CourierName, dto.CourierPhone)
	if err != nil {
		return order.SubOrder{}, err
	}

	return order.RestoreSubOrder(order.RestoreSubOrderParams{
		ID:               id,
		ParentID:         parentID,
		ProviderID:       providerID,
		ProviderName:     dto.ProviderName,
		Items:            items,
		RawStatus:        dto.Status,
		RawCourierStatus: dto.CourierStatus,
		Price:            dto.Price,
		Courier:          courier,
	})
}

// toDomain rehydrates an order from its top-level row and sub-order rows.
func toDomain(dto SnapshotDTO, subRows []SnapshotDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}

	if dto.CustomerID == nil {
		return nil, errInvalidSnapshotRow(dto.ID)
	}
	customerID, err := kernel.UUIDFromBytes((*dto.CustomerID)[:])
	if err != nil {
		return nil, err
	}

	params := order.RestoreOrderParams{
		ID:           id,
		CustomerID:   customerID,
		ProviderName: dto.ProviderName,
		DeliveryFee:  dto.DeliveryFee,
		Address:      dto.Address,
		Note:         dto.Note,
		CreatedAt:        dto.CreatedAt,
		RawStatus:        dto.Status,
		RawCourierStatus: dto.CourierStatus,
		IsParent:         dto.IsParent,
		LastSyncedAt:     dto.SyncedAt,
	}

	if dto.IsParent {
		subOrders := make([]order.SubOrder, 0, len(subRows))
		for _, row := range subRows {
			sub, subErr := subOrderToDomain(row)
			if subErr != nil {
				return nil, subErr
			}
			subOrders = append(subOrders, sub)
		}
		params.SubOrders = subOrders
	} else {
		if dto.ProviderID == nil {
			return nil, errInvalidSnapshotRow(dto.ID)
		}
		providerID, idErr := kernel.UUIDFromBytes((*dto.ProviderID)[:])
		if idErr != nil {
			return nil, idErr
		}
		params.ProviderID = providerID

		items, itemsErr := itemsFromJSON(dto.Items)
		if itemsErr != nil {
			return nil, itemsErr
		}
		params.Items = items

		courier, courierErr := courierFromColumns(dto.CourierID, dto.CourierName, dto.CourierPhone)
		if courierErr != nil {
			return nil, courierErr
		}
		params.Courier = courier
	}

	return order.RestoreOrder(params)
}
