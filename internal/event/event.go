// Package event provides a small synchronous publish/subscribe bus for
// host lifecycle notifications. Handlers run on the publisher's
// goroutine; subscriptions are cancellable and can be collected into a
// Group that is released atomically on teardown.
package event

// Topic identifies a class of events.
type Topic string

// Topics published by the host wiring.
const (
	// TopicDocumentOpened fires when a document becomes active.
	TopicDocumentOpened Topic = "document.opened"

	// TopicDocumentChanged fires after the active document's content
	// changed.
	TopicDocumentChanged Topic = "document.changed"

	// TopicDocumentLanguage fires when the active document's language
	// identifier changed.
	TopicDocumentLanguage Topic = "document.language"

	// TopicConfigChanged fires after any configuration value changed,
	// including a full reload.
	TopicConfigChanged Topic = "config.changed"
)

// DocumentEvent is the payload for document topics.
type DocumentEvent struct {
	// Path is the document's file path.
	Path string

	// Language is the document's language identifier.
	Language string
}

// ConfigEvent is the payload for TopicConfigChanged.
type ConfigEvent struct {
	// Source identifies what triggered the change ("file", "env",
	// "runtime").
	Source string
}

// Handler receives published event payloads.
type Handler func(payload any)
