package domain

// License statuses. Licenses are revoked, never deleted.
const (
	LicenseActive  = "active"
	LicenseRevoked = "revoked"
)

type License struct {
	ID        string `db:"id" json:"id"`
	Key       string `db:"license_key" json:"key"`
	UserID    string `db:"user_id" json:"user_id"`
	OrderID   string `db:"order_id" json:"order_id"`
	ProductID string `db:"product_id" json:"product_id"`
	Status    string `db:"status" json:"status"`
	IssuedAt  string `db:"issued_at" json:"issued_at"`
	RevokedAt string `db:"revoked_at" json:"revoked_at,omitempty"`
}

type Notification struct {
	ID        string `db:"id" json:"id"`
	UserID    string `db:"user_id" json:"user_id"`
	Kind      string `db:"kind" json:"kind"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	Read      bool   `db:"is_read" json:"read"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

// Piracy report statuses. Reports move forward through review, never deleted.
const (
	ReportNew          = "new"
	ReportReviewing    = "reviewing"
	ReportTakedownSent = "takedown_sent"
	ReportResolved     = "resolved"
	ReportDismissed    = "dismissed"
)

type PiracyReport struct {
	ID         string `db:"id" json:"id"`
	ProductID  string `db:"product_id" json:"product_id"`
	URL        string `db:"url" json:"url"`
	ReportedBy string `db:"reported_by" json:"reported_by,omitempty"`
	Notes      string `db:"notes" json:"notes,omitempty"`
	Status     string `db:"status" json:"status"`
	CreatedAt  string `db:"created_at" json:"created_at"`
	UpdatedAt  string `db:"updated_at" json:"updated_at,omitempty"`
}
