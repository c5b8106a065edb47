package domain

import "fmt"

// ActionID identifies the operation requested for a payload.
// The set is closed: values outside it are normalised to ActionUnknown.
type ActionID int

const (
	// ActionUnknown is the fallback for absent or unrecognised identifiers.
	ActionUnknown ActionID = iota
	ActionSendPlainText
	ActionTranslateToMandarin
	ActionSummarizeSelection
	ActionSummarizePage
	ActionShowAllLinks

	// ActionCount is the number of actions. It must stay last.
	ActionCount
)

// Wire identifiers as the extension's context menu sends them.
const (
	WireSendPlainText       = "sendPlainText"
	WireTranslateToMandarin = "translateToMandarin"
	WireSummarizeSelection  = "provideDiscussionSummary"
	WireSummarizePage       = "summarizePage"
	WireShowAllLinks        = "showAllLinks"
)

var wireNames = [...]string{
	ActionUnknown:             "",
	ActionSendPlainText:       WireSendPlainText,
	ActionTranslateToMandarin: WireTranslateToMandarin,
	ActionSummarizeSelection:  WireSummarizeSelection,
	ActionSummarizePage:       WireSummarizePage,
	ActionShowAllLinks:        WireShowAllLinks,
}

var actionNames = [...]string{
	ActionUnknown:             "Unknown",
	ActionSendPlainText:       "SendPlainText",
	ActionTranslateToMandarin: "TranslateToMandarin",
	ActionSummarizeSelection:  "SummarizeSelection",
	ActionSummarizePage:       "SummarizePage",
	ActionShowAllLinks:        "ShowAllLinks",
}

// Every action needs a wire and a display name.
var (
	_ [len(wireNames) - int(ActionCount)]struct{}
	_ [int(ActionCount) - len(wireNames)]struct{}
	_ [len(actionNames) - int(ActionCount)]struct{}
	_ [int(ActionCount) - len(actionNames)]struct{}
)

// ParseAction maps a wire identifier to its ActionID.
// Matching is exact and case-sensitive; anything else yields ActionUnknown.
func ParseAction(wire string) ActionID {
	if wire == "" {
		return ActionUnknown
	}
	for id, name := range wireNames {
		if name == wire {
			return ActionID(id)
		}
	}
	return ActionUnknown
}

// ParseActionStrict is ParseAction for callers that must reject unknown identifiers,
// such as configuration and CLI input.
func ParseActionStrict(wire string) (ActionID, error) {
	id := ParseAction(wire)
	if id == ActionUnknown {
		return ActionUnknown, fmt.Errorf("%w: %q", ErrUnknownAction, wire)
	}
	return id, nil
}

// Actions lists every known action, ActionUnknown first.
func Actions() []ActionID {
	out := make([]ActionID, 0, ActionCount)
	for id := ActionUnknown; id < ActionCount; id++ {
		out = append(out, id)
	}
	return out
}

// Valid reports whether a is inside the closed set.
func (a ActionID) Valid() bool {
	return a >= ActionUnknown && a < ActionCount
}

// Wire returns the identifier used on the wire, or "" for ActionUnknown.
func (a ActionID) Wire() string {
	if !a.Valid() {
		return ""
	}
	return wireNames[a]
}

func (a ActionID) String() string {
	if !a.Valid() {
		return fmt.Sprintf("ActionID(%d)", int(a))
	}
	return actionNames[a]
}
