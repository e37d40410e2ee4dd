package ordersapi

import (
	"time"

	"ordertrack/internal/core/domain/model/kernel"
	"ordertrack/internal/core/domain/model/order"
	"ordertrack/internal/core/ports"
)

// Wire DTOs for the backend orders service. Field sets follow the service's
// JSON contract; everything is remapped into domain types before leaving this
// package.

type ItemDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Note      string  `json:"note,omitempty"`
}

type CourierDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

type SubOrderDTO struct {
	ID            string      `json:"id"`
	ParentID      string      `json:"parent_id"`
	ProviderID    string      `json:"provider_id"`
	ProviderName  string      `json:"provider_name"`
	Status        string      `json:"status"`
	CourierStatus string      `json:"courier_status,omitempty"`
	Items         []ItemDTO   `json:"items"`
	Price         float64     `json:"price"`
	Courier       *CourierDTO `json:"courier,omitempty"`
}

type OrderDTO struct {
	ID            string      `json:"id"`
	CustomerID    string      `json:"customer_id"`
	ProviderID    string      `json:"provider_id,omitempty"`
	ProviderName  string      `json:"provider_name,omitempty"`
	Status        string      `json:"status"`
	CourierStatus string      `json:"courier_status,omitempty"`
	Items         []ItemDTO   `json:"items"`
	DeliveryFee   float64     `json:"delivery_fee"`
	Address       string      `json:"address"`
	Note          string      `json:"note,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	IsParent      bool        `json:"is_parent"`
	Courier       *CourierDTO `json:"courier,omitempty"`
}

type MutationDTO struct {
	Kind       string   `json:"kind"`
	Item       *ItemDTO `json:"item,omitempty"`
	ProviderID string   `json:"provider_id,omitempty"`
	ItemID     string   `json:"item_id,omitempty"`
	Quantity   int      `json:"quantity,omitempty"`
}

func itemToDomain(dto ItemDTO) (order.LineItem, error) {
	id, err := kernel.UUIDFromString(dto.ID)
	if err != nil {
		return order.LineItem{}, err
	}
	return order.NewLineItem(id, dto.Name, dto.UnitPrice, dto.Quantity, dto.Note)
}

func itemsToDomain(dtos []ItemDTO) ([]order.LineItem, error) {
	items := make([]order.LineItem, 0, len(dtos))
	for _, dto := range dtos {
		item, err := itemToDomain(dto)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func itemFromDomain(item order.LineItem) ItemDTO {
	return ItemDTO{
		ID:        item.ID().String(),
		Name:      item.Name(),
		UnitPrice: item.UnitPrice(),
		Quantity:  item.Quantity(),
		Note:      item.Note(),
	}
}

func courierToDomain(dto *CourierDTO) (*order.Courier, error) {
	if dto == nil {
		return nil, nil
	}

	id, err := kernel.UUIDFromString(dto.ID)
	if err != nil {
		return nil, err
	}
	courier, err := order.NewCourier(id, dto.Name, dto.Phone)
	if err != nil {
		return nil, err
	}
	return &courier, nil
}

func subOrderToDomain(dto SubOrderDTO) (order.SubOrder, error) {
	id, err := kernel.UUIDFromString(dto.ID)
	if err != nil {
		return order.SubOrder{}, err
	}
	parentID, err := kernel.UUIDFromString(dto.ParentID)
	if err != nil {
		return order.SubOrder{}, err
	}
	providerID, err := kernel.UUIDFromString(dto.ProviderID)
	if err != nil {
		return order.SubOrder{}, err
	}
	items, err := itemsToDomain(dto.Items)
	if err != nil {
		return order.SubOrder{}, err
	}
	courier, err := courierToDomain(dto.Courier)
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

func subOrdersToDomain(dtos []SubOrderDTO) ([]order.SubOrder, error) {
	subOrders := make([]order.SubOrder, 0, len(dtos))
	for _, dto := range dtos {
		sub, err := subOrderToDomain(dto)
		if err != nil {
			return nil, err
		}
		subOrders = append(subOrders, sub)
	}
	return subOrders, nil
}

func orderToDomain(dto OrderDTO, subOrders []order.SubOrder) (*order.Order, error) {
	id, err := kernel.UUIDFromString(dto.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromString(dto.CustomerID)
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
		CreatedAt:    dto.CreatedAt,
		RawStatus:    dto.Status,
		IsParent:     dto.IsParent,
		SubOrders:    subOrders,
	}

	if !dto.IsParent {
		providerID, idErr := kernel.UUIDFromString(dto.ProviderID)
		if idErr != nil {
			return nil, idErr
		}
		params.ProviderID = providerID

		items, itemsErr := itemsToDomain(dto.Items)
		if itemsErr != nil {
			return nil, itemsErr
		}
		params.Items = items
		params.RawCourierStatus = dto.CourierStatus

		courier, courierErr := courierToDomain(dto.Courier)
		if courierErr != nil {
			return nil, courierErr
		}
		params.Courier = courier
	}

	return order.RestoreOrder(params)
}

func mutationFromDomain(request ports.MutationRequest) MutationDTO {
	dto := MutationDTO{}

	switch request.Kind {
	case ports.MutationAddItem:
		dto.Kind = "add_item"
	case ports.MutationEditQuantity:
		dto.Kind = "edit_quantity"
	case ports.MutationRemoveItem:
		dto.Kind = "remove_item"
	case ports.MutationCancel:
		dto.Kind = "cancel"
	}

	if request.Item != nil {
		item := itemFromDomain(*request.Item)
		dto.Item = &item
	}
	if request.ProviderID.Validate() == nil {
		dto.ProviderID = request.ProviderID.String()
	}
	if request.ItemID.Validate() == nil {
		dto.ItemID = request.ItemID.String()
	}
	dto.Quantity = request.Quantity

	return dto
}
