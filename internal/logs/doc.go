// Package logs reads dccpipe log files for `dccpipe logs`: the last N lines
// of a file and, in follow mode, lines appended afterwards. The daemon's run
// logs are reached through the dccpiped.log pointer, so Follow reopens the
// path when it is replaced or truncated.
package logs
