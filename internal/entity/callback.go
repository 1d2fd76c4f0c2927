package entity

// CallbackEventType represents the type of callback event
type CallbackEventType string

const (
	CallbackEventTypeResult CallbackEventType = "result"
	CallbackEventTypeError  CallbackEventType = "error"
)

// CallbackEvent represents a callback event
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackResultData is sent once a session reaches its result
type CallbackResultData struct {
	SessionID string   `json:"session_id"`
	Tier      Tier     `json:"tier"`
	Quote     *Quote   `json:"quote"`
	Contact   *Contact `json:"contact,omitempty"`
}

// CallbackErrorData is sent when a session ends before reaching a result
type CallbackErrorData struct {
	Error CallbackErrorDetails `json:"error"`
}

// CallbackErrorDetails contains error information
type CallbackErrorDetails struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}
