// Package huckleberry talks to the Huckleberry baby-tracking backend.
//
// Client is a thin REST client: one method per backend action, all returning
// plain payloads. Manager sits on top of it and adds what a conversation
// needs: the children roster, a realtime-fed state cache per child, and the
// short state summary injected into the system prompt. Realtime updates
// arrive over a websocket stream per child; the listener reconnects on its
// own and the caches degrade to "not yet available" rather than blocking.
package huckleberry
