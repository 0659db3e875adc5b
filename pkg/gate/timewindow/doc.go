// Package timewindow decides whether an instant falls inside the daily
// hours during which the bot may initiate contact, and computes the next
// window-open instant when it does not.
package timewindow
