// Command dccpipe is the command-line front end of the pipeline. It creates
// projects, edits shots, runs renders in-process and inspects render versions
// and job history. `dccpipe daemon run` starts the HTTP daemon in the
// foreground; `dccpipe daemon status` queries a running one.
package main
