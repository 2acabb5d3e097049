package models

// OutboundMessageRequest asks the bot to send a text message, either from an operator
// through the HTTP API or from the daily digest.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
