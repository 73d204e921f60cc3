package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldError     = "error"
	FieldOperation = "operation"
	FieldDate      = "date"
	FieldYear      = "year"
	FieldMonth     = "month"
	FieldUserID    = "user_id"
	FieldPage      = "page"
	FieldBackend   = "backend"
	FieldSheetsRef = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentConsole = "console"
	ComponentLedger  = "ledger"
	ComponentMonthly = "monthly"
	ComponentRoster  = "roster"
	ComponentSession = "session"
	ComponentBackend = "backend"
	ComponentExport  = "export"
)

// Operations defines standard operation names
const (
	OpLogin    = "login"
	OpLogout   = "logout"
	OpLoad     = "load"
	OpSave     = "save"
	OpApprove  = "approve"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpExport   = "export"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
