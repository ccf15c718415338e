package portfolios

// Portfolio groups a user's trades under one base currency. The
// brokerage account link is optional and purely organizational.
type Portfolio struct {
	ID                 int64  `json:"id"`
	OwnerUserID        int64  `json:"owner_user_id"`
	Name               string `json:"name"`
	BaseCurrency       string `json:"base_currency"`
	BrokerageAccountID *int64 `json:"brokerage_account_id,omitempty"`
	CreatedAt          string `json:"created_at"`
}
