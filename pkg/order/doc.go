// Package order models the USB-order lifecycle for the sales bot.
//
// An order advances through a strict forward-progressing state machine,
// from intent capture through shipping and completion. Transitions outside
// the table are rejected and leave the order unchanged; every accepted
// transition is appended to an immutable history.
//
// The gating engine consumes orders read-only: the category gate checks
// whether an order has reached a suppression milestone (shipping confirmed
// or completed), and the attempts gate checks for a confirmed-or-beyond
// order before allowing promotional sends.
package order
