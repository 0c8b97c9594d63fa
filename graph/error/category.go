package grapherror

// Category represents the main error category for visualization operations
type Category string

const (
	// CategoryLoad indicates a graph document could not be decoded or validated
	CategoryLoad Category = "load"

	// CategorySource indicates the graph source failed to answer
	CategorySource Category = "source"

	// CategoryLayout indicates a layout could not be computed
	CategoryLayout Category = "layout"

	// CategoryRender indicates drawing or encoding a frame failed
	CategoryRender Category = "render"

	// CategoryWebSocket indicates WebSocket connection/communication errors
	CategoryWebSocket Category = "websocket"

	// CategoryControl indicates a control message could not be applied
	CategoryControl Category = "control"

	// CategoryInternal indicates internal server errors
	CategoryInternal Category = "internal"
)

// String returns the string representation of the category
func (c Category) String() string {
	return string(c)
}

// Load Subcategories
const (
	SubcategoryLoadDecode   = "decode"
	SubcategoryLoadValidate = "validate"
	SubcategoryLoadFormat   = "unsupported_format"
)

// Source Subcategories
const (
	// SubcategorySourceNotFound indicates the requested graph does not exist
	SubcategorySourceNotFound = "not_found"

	// SubcategorySourceUnavailable indicates the service is unreachable or the breaker is open
	SubcategorySourceUnavailable = "unavailable"

	// SubcategorySourceTimeout indicates the request exceeded its deadline
	SubcategorySourceTimeout = "timeout"
)

// WebSocket Subcategories
const (
	SubcategoryWSRead    = "read"
	SubcategoryWSWrite   = "write"
	SubcategoryWSUpgrade = "upgrade"
	SubcategoryWSClosed  = "closed"
)

// Control Subcategories
const (
	// SubcategoryControlUnknown indicates an unknown message type
	SubcategoryControlUnknown = "unknown_type"

	// SubcategoryControlInvalidValue indicates a value out of its allowed domain
	SubcategoryControlInvalidValue = "invalid_value"
)

// Render Subcategories
const (
	SubcategoryRenderEncode = "encode"
	SubcategoryRenderEmpty  = "empty"
)

// Internal Subcategories
const (
	SubcategoryInternalPanic  = "panic"
	SubcategoryInternalConfig = "config"
)
