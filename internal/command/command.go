// Package command turns free-form instruction text into automation actions.
//
// Classification is keyword based, not a grammar. The first keyword category
// present in the text wins, in this order:
//
//	open/launch → tap → swipe → insert/paste → unrecognized
//
// Parameters are then extracted from the text with a fixed pattern per
// category. A category whose pattern does not match yields Unrecognized with
// the reason, never a fallthrough to a later category.
package command

import "fmt"

// Kind identifies the variant of an Action.
type Kind string

const (
	KindOpenApp      Kind = "open_app"
	KindTap          Kind = "tap"
	KindSwipe        Kind = "swipe"
	KindInsertText   Kind = "insert_text"
	KindUnrecognized Kind = "unrecognized"
)

// Action is a parsed instruction. The concrete type is one of OpenApp, Tap,
// Swipe, InsertText or Unrecognized.
type Action interface {
	Kind() Kind
	String() string
	isAction()
}

// OpenApp launches the application with the given identifier (package name).
type OpenApp struct {
	Target string
}

// Tap touches a single screen point.
type Tap struct {
	X, Y int
}

// Swipe drags from (X1, Y1) to (X2, Y2).
type Swipe struct {
	X1, Y1, X2, Y2 int
}

// InsertText pastes Content into the focused input.
type InsertText struct {
	Content string
}

// Unrecognized is produced when no keyword matched or the matched keyword had
// malformed parameters. Category is the keyword category that matched, or
// KindUnrecognized when none did.
type Unrecognized struct {
	Reason   Reason
	Category Kind
	Text     string
}

func (OpenApp) Kind() Kind      { return KindOpenApp }
func (Tap) Kind() Kind          { return KindTap }
func (Swipe) Kind() Kind        { return KindSwipe }
func (InsertText) Kind() Kind   { return KindInsertText }
func (Unrecognized) Kind() Kind { return KindUnrecognized }

func (OpenApp) isAction()      {}
func (Tap) isAction()          {}
func (Swipe) isAction()        {}
func (InsertText) isAction()   {}
func (Unrecognized) isAction() {}

func (a OpenApp) String() string { return "open " + a.Target }
func (a Tap) String() string     { return fmt.Sprintf("tap %d,%d", a.X, a.Y) }
func (a Swipe) String() string {
	return fmt.Sprintf("swipe %d,%d to %d,%d", a.X1, a.Y1, a.X2, a.Y2)
}
func (a InsertText) String() string   { return "insert " + a.Content }
func (a Unrecognized) String() string { return fmt.Sprintf("unrecognized (%s)", a.Reason) }

// Err returns the ParseError describing why the text was not recognized.
func (a Unrecognized) Err() error {
	return &ParseError{Reason: a.Reason, Category: a.Category, Text: a.Text}
}

// Reason says why an instruction was not recognized.
type Reason string

const (
	ReasonUnknownCommand Reason = "unknown command"
	ReasonMissingTarget  Reason = "missing target"
	ReasonBadCoordinates Reason = "bad coordinates"
	ReasonMissingContent Reason = "missing content"
)

// usage is the accepted syntax shown back to the user per keyword category.
var usage = map[Kind]string{
	KindOpenApp:    "open com.example.app",
	KindTap:        "tap 100,200",
	KindSwipe:      "swipe 100,200 to 300,400",
	KindInsertText: "insert hello world",
}

// ParseError reports an instruction that did not match any accepted syntax.
type ParseError struct {
	Reason   Reason
	Category Kind
	Text     string
}

func (e *ParseError) Error() string {
	if hint, ok := usage[e.Category]; ok {
		return fmt.Sprintf("%s in %q, use format: %s", e.Reason, e.Text, hint)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Text)
}
