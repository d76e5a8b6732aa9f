package audithook

// Action constants for audit events.
const (
	// Area actions
	ActionAreaCreated = "area.created"
	ActionAreaDeleted = "area.deleted"

	// Customer actions
	ActionCustomerCreated = "customer.created"
	ActionCustomerUpdated = "customer.updated"
	ActionCustomerDeleted = "customer.deleted"

	// Payment actions
	ActionPaymentRecorded = "payment.recorded"
	ActionPaymentDeleted  = "payment.deleted"

	// Ledger actions
	ActionDefaulterScan = "defaulter.scan"

	// Auth actions
	ActionAuthLogin  = "auth.login"
	ActionAuthFailed = "auth.failed"
)

// Resource constants for audit events.
const (
	ResourceArea     = "area"
	ResourceCustomer = "customer"
	ResourcePayment  = "payment"
	ResourceLedger   = "ledger"
	ResourceUser     = "user"
)

// Category constants for audit events.
const (
	CategoryRegistry = "registry"
	CategoryBilling  = "billing"
	CategoryAccess   = "access"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
