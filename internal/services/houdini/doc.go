// Package houdini drives the hython adapter script: USD export of Houdini
// scenes and single-frame Karma renders of USD stages.
package houdini
