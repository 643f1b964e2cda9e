package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"

	FieldUserID       = "user_id"
	FieldExpenseID    = "expense_id"
	FieldBudgetID     = "budget_id"
	FieldCategoryID   = "category_id"
	FieldGoalID       = "goal_id"
	FieldAmountCents  = "amount_cents"
	FieldNotifyKind   = "notification_kind"
	FieldPercentUsed  = "percent_used"
	FieldJobKind      = "job_kind"
	FieldEmailAddress = "email"
)

// Standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAuth      = "auth"
	ComponentStorage   = "storage"
	ComponentBudget    = "budget"
	ComponentAnalytics = "analytics"
	ComponentNotify    = "notify"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentMail      = "mail"
	ComponentAI        = "ai"
	ComponentSheets    = "sheets"
)
