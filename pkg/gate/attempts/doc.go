// Package attempts blocks promotional sends for customers with a
// confirmed-or-beyond order and enforces the follow-up attempt budgets
// (per engagement cycle and per rolling day).
//
// Order-status and notification messages bypass the active-order check;
// inbound processing never consults this package at all.
package attempts
