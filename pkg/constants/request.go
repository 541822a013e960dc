package constants

// Query string keys understood by registry pages.
const (
	ParamSort  = "Sort"
	ParamDir   = "Dir"
	ParamStart = "start"
)

// Filter form naming. The form action and submit button names are part of
// the public URL surface: bookmarked searches depend on them.
const (
	FormRegistryFilter = "RegistryFilterForm"
	ActionFilter       = "action_doRegistryFilter"
	ActionFilterValue  = "Filter"
	ActionExport       = "export"
	ActionShow         = "show"
)

// HTTP headers and gin context keys
const (
	HeaderAuthorization = "Authorization"
	HeaderRequestID     = "X-Request-ID"
	ContextKeyUser      = "user"
	ContextKeyRequestID = "request_id"
)

// Response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)
