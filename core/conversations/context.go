package conversations

// View exposes the live transcript to display collaborators.
type View interface {
	// Committed messages only. Ordering: oldest -> newest.
	Messages() []Message

	// Uncommitted text of the speaker's current turn; empty when absent.
	Partial(speaker Speaker) string
}
