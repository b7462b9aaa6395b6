package estate

import (
	"time"

	"estatehub.app/internal/auth"
)

// Actor is the authenticated caller of a service operation.
type Actor struct {
	ID   string
	Role auth.Role
}

func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

// ActorFromClaims builds an Actor from verified token claims.
func ActorFromClaims(c *auth.Claims) Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{ID: c.Subject, Role: c.Role}
}

type Property struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Location      string         `json:"location"`
	City          string         `json:"city"`
	Bedrooms      int            `json:"bedrooms"`
	Bathrooms     int            `json:"bathrooms"`
	Size          int            `json:"size"`
	Price         float64        `json:"price"`
	Status        PropertyStatus `json:"status"`
	Amenities     []string       `json:"amenities"`
	Images        []string       `json:"images"`
	FeaturedImage string         `json:"featured_image,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// PropertyInput is the create payload. Pointer fields distinguish a missing
// value from zero.
type PropertyInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	City        string   `json:"city"`
	Bedrooms    *int     `json:"bedrooms"`
	Bathrooms   *int     `json:"bathrooms"`
	Size        *int     `json:"size"`
	Price       *float64 `json:"price"`
	Amenities   []string `json:"amenities"`
}

type PropertyUpdate struct {
	Name        *string         `json:"name"`
	Description *string         `json:"description"`
	Location    *string         `json:"location"`
	City        *string         `json:"city"`
	Bedrooms    *int            `json:"bedrooms"`
	Bathrooms   *int            `json:"bathrooms"`
	Size        *int            `json:"size"`
	Price       *float64        `json:"price"`
	Amenities   *[]string       `json:"amenities"`
	Status      *PropertyStatus `json:"status"`
}

func (u PropertyUpdate) Empty() bool {
	return u.Name == nil && u.Description == nil && u.Location == nil && u.City == nil &&
		u.Bedrooms == nil && u.Bathrooms == nil && u.Size == nil && u.Price == nil &&
		u.Amenities == nil && u.Status == nil
}

// Property listing sort keys.
var propertySortKeys = map[string]bool{"created_at": true, "price": true, "bedrooms": true, "name": true}

type PropertyFilter struct {
	City      string
	MinPrice  *float64
	MaxPrice  *float64
	Bedrooms  *int
	SortBy    string
	SortOrder string
	Page      Page
}

// Tenancy is a lease binding a tenant user to a property. The joined name
// fields are filled by read operations.
type Tenancy struct {
	ID                    string        `json:"id"`
	UserID                string        `json:"user_id"`
	PropertyID            string        `json:"property_id"`
	LeaseStart            Date          `json:"lease_start_date"`
	LeaseEnd              Date          `json:"lease_end_date"`
	MonthlyRent           float64       `json:"monthly_rent"`
	DepositAmount         float64       `json:"deposit_amount"`
	DepositStatus         DepositStatus `json:"deposit_status"`
	EmergencyContactName  string        `json:"emergency_contact_name"`
	EmergencyContactPhone string        `json:"emergency_contact_phone"`
	MoveInDate            Date          `json:"move_in_date"`
	MoveOutDate           Date          `json:"move_out_date"`
	Status                TenancyStatus `json:"status"`
	Notes                 string        `json:"notes,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`

	TenantName       string `json:"tenant_name,omitempty"`
	TenantEmail      string `json:"tenant_email,omitempty"`
	TenantPhone      string `json:"tenant_phone,omitempty"`
	PropertyName     string `json:"property_name,omitempty"`
	PropertyLocation string `json:"property_location,omitempty"`
}

type TenancyInput struct {
	UserID                string   `json:"user_id"`
	PropertyID            string   `json:"property_id"`
	LeaseStart            Date     `json:"lease_start_date"`
	LeaseEnd              Date     `json:"lease_end_date"`
	MonthlyRent           *float64 `json:"monthly_rent"`
	DepositAmount         *float64 `json:"deposit_amount"`
	EmergencyContactName  string   `json:"emergency_contact_name"`
	EmergencyContactPhone string   `json:"emergency_contact_phone"`
	MoveInDate            Date     `json:"move_in_date"`
	Notes                 string   `json:"notes"`
}

type TenancyUpdate struct {
	LeaseEnd              *Date          `json:"lease_end_date"`
	MonthlyRent           *float64       `json:"monthly_rent"`
	DepositStatus         *DepositStatus `json:"deposit_status"`
	EmergencyContactName  *string        `json:"emergency_contact_name"`
	EmergencyContactPhone *string        `json:"emergency_contact_phone"`
	Notes                 *string        `json:"notes"`
}

func (u TenancyUpdate) Empty() bool {
	return u.LeaseEnd == nil && u.MonthlyRent == nil && u.DepositStatus == nil &&
		u.EmergencyContactName == nil && u.EmergencyContactPhone == nil && u.Notes == nil
}

type TenancyFilter struct {
	PropertyID string
	Page       Page
}

// Payment records money received against a tenancy. TenantID is the tenancy id.
type Payment struct {
	ID                   string        `json:"id"`
	TenantID             string        `json:"tenant_id"`
	PropertyID           string        `json:"property_id"`
	Amount               float64       `json:"amount"`
	PaymentType          PaymentType   `json:"payment_type"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	TransactionReference string        `json:"transaction_reference"`
	PaymentDate          Date          `json:"payment_date"`
	DueDate              Date          `json:"due_date"`
	Status               PaymentStatus `json:"status"`
	ReceiptNumber        string        `json:"receipt_number"`
	Notes                string        `json:"notes,omitempty"`
	CreatedBy            string        `json:"created_by"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`

	TenantName   string `json:"tenant_name,omitempty"`
	PropertyName string `json:"property_name,omitempty"`
	TenantUserID string `json:"-"`
}

type PaymentInput struct {
	TenantID             string        `json:"tenant_id"`
	PropertyID           string        `json:"property_id"`
	Amount               float64       `json:"amount"`
	PaymentType          PaymentType   `json:"payment_type"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	TransactionReference string        `json:"transaction_reference"`
	PaymentDate          Date          `json:"payment_date"`
	DueDate              Date          `json:"due_date"`
	Notes                string        `json:"notes"`
}

type PaymentFilter struct {
	TenancyID string
	Status    PaymentStatus
	From      Date
	To        Date
	Page      Page
}

type Receipt struct {
	ReceiptNumber        string        `json:"receipt_number"`
	PaymentDate          Date          `json:"payment_date"`
	TenantName           string        `json:"tenant_name"`
	PropertyName         string        `json:"property_name"`
	Amount               float64       `json:"amount"`
	PaymentType          PaymentType   `json:"payment_type"`
	PaymentMethod        PaymentMethod `json:"payment_method"`
	TransactionReference string        `json:"transaction_reference"`
}

// ReceiptOf projects a payment onto its receipt.
func ReceiptOf(p *Payment) Receipt {
	return Receipt{
		ReceiptNumber:        p.ReceiptNumber,
		PaymentDate:          p.PaymentDate,
		TenantName:           p.TenantName,
		PropertyName:         p.PropertyName,
		Amount:               p.Amount,
		PaymentType:          p.PaymentType,
		PaymentMethod:        p.PaymentMethod,
		TransactionReference: p.TransactionReference,
	}
}

// MaintenanceRequest is a repair ticket. TenantID is the tenancy id.
type MaintenanceRequest struct {
	ID             string            `json:"id"`
	PropertyID     string            `json:"property_id"`
	TenantID       string            `json:"tenant_id"`
	ReportedBy     string            `json:"reported_by"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Priority       Priority          `json:"priority"`
	Status         MaintenanceStatus `json:"status"`
	Category       Category          `json:"category"`
	AssignedTo     string            `json:"assigned_to,omitempty"`
	EstimatedCost  *float64          `json:"estimated_cost"`
	ActualCost     *float64          `json:"actual_cost"`
	CompletionDate Date              `json:"completion_date"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	PropertyName string `json:"property_name,omitempty"`
	ReporterName string `json:"reporter_name,omitempty"`
	TenantUserID string `json:"-"`
}

type MaintenanceInput struct {
	PropertyID  string   `json:"property_id"`
	TenantID    string   `json:"tenant_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
}

type MaintenanceUpdate struct {
	Status         *MaintenanceStatus `json:"status"`
	AssignedTo     *string            `json:"assigned_to"`
	EstimatedCost  *float64           `json:"estimated_cost"`
	ActualCost     *float64           `json:"actual_cost"`
	CompletionDate *Date              `json:"completion_date"`
}

func (u MaintenanceUpdate) Empty() bool {
	return u.Status == nil && u.AssignedTo == nil && u.EstimatedCost == nil &&
		u.ActualCost == nil && u.CompletionDate == nil
}

type MaintenanceFilter struct {
	TenancyID string
	Status    MaintenanceStatus
	Priority  Priority
	Page      Page
}

type Notification struct {
	ID        string               `json:"id"`
	UserID    string               `json:"user_id"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Type      NotificationType     `json:"type"`
	Category  NotificationCategory `json:"category"`
	IsRead    bool                 `json:"is_read"`
	ActionURL string               `json:"action_url,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}
