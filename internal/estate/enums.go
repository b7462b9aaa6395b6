package estate

type PropertyStatus string

const (
	PropertyAvailable   PropertyStatus = "available"
	PropertyOccupied    PropertyStatus = "occupied"
	PropertyMaintenance PropertyStatus = "maintenance"
)

func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyAvailable, PropertyOccupied, PropertyMaintenance:
		return true
	}
	return false
}

type TenancyStatus string

const (
	TenancyActive   TenancyStatus = "active"
	TenancyInactive TenancyStatus = "inactive"
	TenancyEvicted  TenancyStatus = "evicted"
)

type DepositStatus string

const (
	DepositPaid     DepositStatus = "paid"
	DepositUnpaid   DepositStatus = "unpaid"
	DepositRefunded DepositStatus = "refunded"
)

func (s DepositStatus) Valid() bool {
	switch s {
	case DepositPaid, DepositUnpaid, DepositRefunded:
		return true
	}
	return false
}

type PaymentType string

const (
	PaymentRent        PaymentType = "rent"
	PaymentDeposit     PaymentType = "deposit"
	PaymentMaintenance PaymentType = "maintenance"
	PaymentPenalty     PaymentType = "penalty"
)

func (t PaymentType) Valid() bool {
	switch t {
	case PaymentRent, PaymentDeposit, PaymentMaintenance, PaymentPenalty:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodMpesa        PaymentMethod = "mpesa"
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodCash         PaymentMethod = "cash"
	MethodCheque       PaymentMethod = "cheque"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodMpesa, MethodBankTransfer, MethodCash, MethodCheque:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentOverdue   PaymentStatus = "overdue"
	PaymentCancelled PaymentStatus = "cancelled"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentOverdue, PaymentCancelled:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow       Priority = "low"
	PriorityMedium    Priority = "medium"
	PriorityHigh      Priority = "high"
	PriorityEmergency Priority = "emergency"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityEmergency:
		return true
	}
	return false
}

type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

type Category string

const (
	CategoryPlumbing   Category = "plumbing"
	CategoryElectrical Category = "electrical"
	CategoryStructural Category = "structural"
	CategoryAppliance  Category = "appliance"
	CategoryOther      Category = "other"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPlumbing, CategoryElectrical, CategoryStructural, CategoryAppliance, CategoryOther:
		return true
	}
	return false
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

type NotificationCategory string

const (
	TopicPayment     NotificationCategory = "payment"
	TopicMaintenance NotificationCategory = "maintenance"
	TopicLease       NotificationCategory = "lease"
	TopicSystem      NotificationCategory = "system"
)
