package storefront

import (
	"context"
	"net/http"

	"github.com/sagelock/freeclaim/pkg/slogx"
)

// purchaseOrderMutation is the transactional claim. A zero-cost offer is
// acquired through the same order pipeline as a paid purchase.
const purchaseOrderMutation = `
mutation purchaseOrderMutation($orderPurchaseParams: OrderPurchaseParams!) {
    purchaseOrder(orderPurchaseParams: $orderPurchaseParams) {
        orderResponse {
            orderResponseCode
            orderNumber
            orderComplete
            orderError
        }
    }
}`

// PurchaseOrder executes the claim transaction for one offer within its
// namespace and returns the storefront's order verdict. The caller decides
// what a non-complete order means; this method only errors on transport or
// decoding failures.
func (c *Client) PurchaseOrder(ctx context.Context, bearer, offerID, namespace string) (*OrderResponse, error) {
	payload := map[string]any{
		"query": purchaseOrderMutation,
		"variables": map[string]any{
			"orderPurchaseParams": map[string]any{
				"productId": offerID,
				"quantity":  1,
				"namespace": namespace,
				"offerId":   offerID,
				"currency":  "USD",
				"lineOffers": []map[string]any{
					{"offerId": offerID, "quantity": 1},
				},
			},
		},
	}

	resp, err := c.postJSON(ctx, c.graphqlURL, payload, bearer)
	if err != nil {
		return nil, err
	}

	var result purchaseOrderResponse
	if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
		return nil, err
	}

	order := result.Data.PurchaseOrder.OrderResponse
	slogx.FromContext(ctx).Debug("purchase order executed",
		"offer_id", offerID,
		"order_complete", order.OrderComplete,
		"order_number", order.OrderNumber,
	)
	return &order, nil
}
