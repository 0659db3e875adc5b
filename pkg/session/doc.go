// Package session defines the per-customer conversation record consumed by
// the gating engine, and the Store interface that owns it.
//
// A UserSession is created on first inbound contact and mutated by every
// inbound/outbound exchange. The gating engine treats sessions as read-only
// snapshots; only the Store mutates them. Callers that evaluate-then-send
// must serialize the read-evaluate-send-record sequence per phone (see
// scheduler.KeyedMutex) so two concurrent sends cannot race past the
// recency gate with a stale LastFollowUp.
package session
