package securities

// Security represents an instrument in the security master.
// A security is immutable once a trade references it.
type Security struct {
	ID        int64  `json:"id"`
	Ticker    string `json:"ticker"`
	Exchange  string `json:"exchange"`
	Currency  string `json:"currency"`
	SecType   string `json:"sec_type"`
	Sector    string `json:"sector,omitempty"`
	Industry  string `json:"industry,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Tag is a free-form label attached to a security
type Tag struct {
	SecurityID int64  `json:"security_id"`
	Label      string `json:"label"`
}
