package models

// WebhookPayload is the subset of a WhatsApp Cloud API webhook callback the bot reads.
// Status receipts and media messages are decoded away.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

// WebhookValue holds the messages of one change; it is empty for delivery receipts.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a chat message sent to the bot. Text carries typed commands;
// Interactive carries quick-reply buttons whose IDs are commands such as "/flocks".
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type InteractiveContent struct {
	Type        string     `json:"type"`
	ButtonReply *ReplyPick `json:"button_reply,omitempty"`
	ListReply   *ReplyPick `json:"list_reply,omitempty"`
}

// ReplyPick is the button or list row the user tapped.
type ReplyPick struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
