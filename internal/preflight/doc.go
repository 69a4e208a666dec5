// Package preflight provides readiness checks for the filesystem paths,
// external tools and daemon that dccpipe depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check.
//   - The CLI "dccpipe doctor" command prints RunAll, the daemon probe and a
//     host resource report.
package preflight
