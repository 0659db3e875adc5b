// Package category looks up whether a customer's latest order has reached
// a milestone that suppresses non-transactional outbound messages.
//
// The lookup is deliberately fail-open: a repository error reports "not
// suppressed" so a storage hiccup cannot silently mute legitimate sends.
// Every other gate in the engine fails closed; this asymmetry is the one
// designed exception.
package category
