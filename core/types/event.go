package types

// Event represents a typed audit event emitted during state transitions.
// Events are append-only facts consumed by external indexers; the ledger
// itself never reads them back.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
