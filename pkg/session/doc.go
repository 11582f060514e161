// Package session holds in-memory conversation state keyed by a
// caller-supplied session id.
//
// Invariants:
// - At most one live Session per id; an expired session is replaced with a
//   fresh one on next access, never resurrected.
// - Expiry is idle-time based, measured from the last Save (or creation).
// - The store mutex guards map access only and is never held across an
//   outbound call.
//
// Usage:
//
//	store := session.NewStore(30*time.Minute, nil)
//	s := store.GetOrCreate("siri-shortcut")
//	s.History = updated
//	s.TurnCount++
//	store.Save(s)
package session
