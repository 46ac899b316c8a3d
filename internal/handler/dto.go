package handler

import (
	"time"

	"github.com/vkmflowers/backend/internal/domain/customreq"
	"github.com/vkmflowers/backend/internal/domain/lifecycle"
	"github.com/vkmflowers/backend/internal/domain/order"
	"github.com/vkmflowers/backend/internal/domain/product"
)

// Field names follow the storefront client's JSON shapes.

type orderDTO struct {
	ID                 string     `json:"id"`
	BillID             string     `json:"billId,omitempty"`
	UserID             string     `json:"userId"`
	ProductID          string     `json:"productId"`
	ProductTitle       string     `json:"productTitle"`
	ProductImage       string     `json:"productImage"`
	Quantity           int        `json:"quantity"`
	TotalPrice         float64    `json:"totalPrice"`
	Description        string     `json:"description,omitempty"`
	Status             string     `json:"status"`
	CreatedAt          time.Time  `json:"createdAt"`
	ExpectedDeliveryAt *time.Time `json:"expectedDeliveryAt,omitempty"`
	// RemainingSeconds is derived from the stored delivery instant on every
	// read; it is never persisted. Only present on active-queue reads.
	RemainingSeconds *int64 `json:"remainingSeconds,omitempty"`
}

func toOrderDTO(o order.Order) orderDTO {
	dto := orderDTO{
		ID:           o.ID,
		BillID:       o.BillID,
		UserID:       o.UserID,
		ProductID:    o.ProductID,
		ProductTitle: o.ProductTitle,
		ProductImage: o.ProductImage,
		Quantity:     o.Quantity,
		TotalPrice:   o.TotalPrice.InexactFloat64(),
		Description:  o.Description,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
	}
	if !o.ExpectedDeliveryAt.IsZero() {
		t := o.ExpectedDeliveryAt
		dto.ExpectedDeliveryAt = &t
	}
	return dto
}

func toOrderDTOs(os []order.Order) []orderDTO {
	out := make([]orderDTO, len(os))
	for i, o := range os {
		out[i] = toOrderDTO(o)
	}
	return out
}

// withOrderCountdown annotates active-queue entries with the live remaining
// time as seen at now.
func withOrderCountdown(dtos []orderDTO, os []order.Order, now time.Time) []orderDTO {
	for i := range dtos {
		rem := int64(lifecycle.Remaining(now, os[i].ExpectedDeliveryAt).Seconds())
		dtos[i].RemainingSeconds = &rem
	}
	return dtos
}

type customRequestDTO struct {
	ID               string     `json:"id"`
	UserID           string     `json:"userId"`
	Description      string     `json:"description"`
	RequestedDate    string     `json:"requestedDate"`
	RequestedTime    string     `json:"requestedTime"`
	ContactName      string     `json:"contactName"`
	ContactPhone     string     `json:"contactPhone"`
	Images           []string   `json:"images"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	DeadlineAt       *time.Time `json:"deadlineAt,omitempty"`
	RemainingSeconds *int64     `json:"remainingSeconds,omitempty"`
}

func toCustomRequestDTO(r customreq.CustomRequest) customRequestDTO {
	dto := customRequestDTO{
		ID:            r.ID,
		UserID:        r.UserID,
		Description:   r.Description,
		RequestedDate: r.RequestedDate,
		RequestedTime: r.RequestedTime,
		ContactName:   r.ContactName,
		ContactPhone:  r.ContactPhone,
		Images:        r.Images,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
	}
	if !r.DeadlineAt.IsZero() {
		t := r.DeadlineAt
		dto.DeadlineAt = &t
	}
	return dto
}

func toCustomRequestDTOs(rs []customreq.CustomRequest) []customRequestDTO {
	out := make([]customRequestDTO, len(rs))
	for i, r := range rs {
		out[i] = toCustomRequestDTO(r)
	}
	return out
}

func withRequestCountdown(dtos []customRequestDTO, rs []customreq.CustomRequest, now time.Time) []customRequestDTO {
	for i := range dtos {
		rem := int64(lifecycle.Remaining(now, rs[i].DeadlineAt).Seconds())
		dtos[i].RemainingSeconds = &rem
	}
	return dtos
}

type productDTO struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Price         float64  `json:"price"`
	DurationHours int      `json:"durationHours"`
	Images        []string `json:"images"`
}

func toProductDTO(p product.Product) productDTO {
	return productDTO{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		DurationHours: p.DurationHours,
		Images:        p.Images,
	}
}
