package storefront

// LoginResponse is the identity service's answer to a primary credential
// exchange. When TwoFactorRequired is set, no tokens have been issued yet
// and the step-up flow must complete before the redirect can be followed.
type LoginResponse struct {
	TwoFactorRequired bool   `json:"twoFactorRequired"`
	Method            string `json:"method"`
}

// redirectResponse carries the short-lived authorization code inside the
// redirect URL's query string.
type redirectResponse struct {
	RedirectURL string `json:"redirectUrl"`
}

// TokenResponse is the oauth token endpoint response for both the
// authorization_code and refresh_token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	AccountID    string `json:"account_id"`
	ExpiresIn    int    `json:"expires_in"`
}

// CatalogElement is one entry of the free-games feed, trimmed to the fields
// the claimer reads.
type CatalogElement struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Namespace   string       `json:"namespace"`
	Description string       `json:"description"`
	URLSlug     string       `json:"urlSlug"`
	Price       CatalogPrice `json:"price"`
}

type CatalogPrice struct {
	TotalPrice struct {
		DiscountPrice int `json:"discountPrice"`
	} `json:"totalPrice"`
}

// IsFree reports whether the discounted price is zero.
func (e CatalogElement) IsFree() bool {
	return e.Price.TotalPrice.DiscountPrice == 0
}

type catalogResponse struct {
	Data struct {
		Catalog struct {
			SearchStore struct {
				Elements []CatalogElement `json:"elements"`
			} `json:"searchStore"`
		} `json:"Catalog"`
	} `json:"data"`
}

// OrderResponse is the outcome of a purchase-order mutation. Only
// OrderComplete marks a confirmed claim; every other shape is a rejection.
type OrderResponse struct {
	OrderResponseCode string `json:"orderResponseCode"`
	OrderNumber       string `json:"orderNumber"`
	OrderComplete     bool   `json:"orderComplete"`
	OrderError        string `json:"orderError"`
}

type purchaseOrderResponse struct {
	Data struct {
		PurchaseOrder struct {
			OrderResponse OrderResponse `json:"orderResponse"`
		} `json:"purchaseOrder"`
	} `json:"data"`
}
