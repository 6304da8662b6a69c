package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopfront-backend/api/responses"
	"github.com/angelmondragon/shopfront-backend/api/validators"
	orderssvc "github.com/angelmondragon/shopfront-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/shopfront-backend/pkg/errors"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type placeOrderRequest struct {
	UserID string             `json:"userId" validate:"required"`
	Items  []orderItemPayload `json:"items" validate:"required,min=1,dive"`
}

type orderItemPayload struct {
	ProductID uint64           `json:"productId" validate:"required,max=9223372036854775807"`
	Quantity  int              `json:"quantity" validate:"gt=0,max=2147483647"`
	Price     *decimal.Decimal `json:"price" validate:"required"`
}

func (p placeOrderRequest) toInput() orderssvc.PlaceOrderInput {
	items := make([]orderssvc.ItemInput, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, orderssvc.ItemInput{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     *item.Price,
		})
	}
	return orderssvc.PlaceOrderInput{UserID: p.UserID, Items: items}
}

// OrderList returns the user's orders with their lines and products.
func OrderList(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		userID, err := validators.RequireQuery(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, err := svc.ListOrders(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// OrderPlace records the order and its lines and empties the user's cart.
func OrderPlace(svc orderssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.PlaceOrder(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
