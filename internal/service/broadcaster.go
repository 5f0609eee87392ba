package service

// Websocket message types pushed to wizard subscribers
const (
	MsgPreviewUpdate    = "preview_update"
	MsgSaveStatus       = "save_status"
	MsgGenerationStatus = "generation_status"
	MsgError            = "error"
)

// Broadcaster interface for WebSocket broadcasting (avoids import cycle)
type Broadcaster interface {
	BroadcastToSession(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}
