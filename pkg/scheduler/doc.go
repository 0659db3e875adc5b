// Package scheduler drives follow-up sends through the gating engine.
//
// Follow-ups are durable outbox jobs. A cron-driven sweep claims due jobs,
// serializes per phone, evaluates the outbound gates, and either sends or
// reschedules the job to the gate's NextEligibleAt. A bounded reschedule
// budget keeps a permanently ineligible user (closed contact, endless
// cooldown) from looping forever: once exhausted, the job is abandoned.
package scheduler
