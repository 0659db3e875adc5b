// Package cooldown suppresses outbound contact for users in an explicit
// cooldown window or with a non-active contact status.
//
// Inbound processing never consults this package: an opted-out user can
// always re-engage by writing in.
package cooldown
