// Package api serves the daemon's HTTP/JSON interface over the project,
// render and job packages.
//
// # Routes
//
//	GET  /healthz                           liveness
//	GET  /metrics                           Prometheus scrape
//	GET  /api/status                        daemon and worker status
//	GET  /api/projects                      project names
//	POST /api/projects                      start a create-project job (202)
//	GET  /api/projects/{name}               manifest and tree
//	POST /api/projects/{name}/shots         add a shot
//	GET  /api/projects/{name}/renders       render version ids
//	POST /api/projects/{name}/renders       start a render job (202)
//	GET  /api/projects/{name}/renders/{rsv} one render version
//	GET  /api/jobs                          job history
//	GET  /api/jobs/{id}                     one job
//
// # Errors
//
// Failures are returned as {"error": "..."} with the status chosen by
// StatusForError from the services sentinel wrapped in the error. Long
// running work is never done inside a request: submissions return 202 with
// the job record and clients poll /api/jobs/{id}.
package api
