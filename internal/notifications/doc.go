// Package notifications posts job outcomes to an ntfy topic.
//
// The workflow manager calls JobFinished once per job after its final state
// is recorded: created projects, completed render versions and failures each
// get their own title, tags and priority. Without a configured topic New
// returns a notifier that does nothing.
package notifications
