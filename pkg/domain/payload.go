package domain

// Payload is one inbound request from the extension.
// It lives for a single dispatch.
type Payload struct {
	Action ActionID
	Text   string
	// Markup is the page HTML. Only page-scope actions read it.
	Markup string
}

// NewPayload builds a Payload from wire fields, applying the fallback for unknown actions.
func NewPayload(wireAction, text, markup string) Payload {
	return Payload{
		Action: ParseAction(wireAction),
		Text:   text,
		Markup: markup,
	}
}

// Result is the transformed text relayed to the display.
// It carries no metadata about the action that produced it.
type Result = string
