package accounts

// User is an application user who owns brokerage accounts and
// portfolios. The password digest never leaves the repository layer.
type User struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	FirstName  string  `json:"first_name"`
	MiddleName *string `json:"middle_name,omitempty"`
	LastName   string  `json:"last_name"`
	CreatedAt  string  `json:"created_at"`
}

// BrokerageAccount is a real-world account at a brokerage. Portfolios
// may link to one; the link is organizational and has no effect on
// valuation.
type BrokerageAccount struct {
	ID            int64   `json:"id"`
	OwnerUserID   int64   `json:"owner_user_id"`
	AccountNumber string  `json:"account_number"`
	AccountType   string  `json:"account_type"`
	BrokerageName string  `json:"brokerage_name"`
	BaseCurrency  string  `json:"base_currency"`
	Nickname      *string `json:"nickname,omitempty"`
	CreatedAt     string  `json:"created_at"`
}
