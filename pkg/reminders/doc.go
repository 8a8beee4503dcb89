// Package reminders synthesizes client-side reminder notifications.
//
// A Scheduler inspects the notification list on a gocron schedule and
// ingests:
//
//   - one pending_opportunities record per day while unread opportunity_new
//     records exist, with id "pending-opportunities-YYYYMMDD";
//   - one application_reminder per deadline_reminder record whose
//     data.deadline falls within DeadlineWindow, also once per day.
//
// Because the ids embed the date, repeated checks on the same day are
// dropped as duplicates by the store.
package reminders
