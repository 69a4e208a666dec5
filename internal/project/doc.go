// Package project manages scene projects on disk.
//
// A project is a directory under the configured root holding the scene file
// (USD, either copied or converted from a Maya/Houdini source), a Renders/
// directory and Config/metadata.yaml. Workspace creates, loads and lists
// projects; Project exposes the manifest store and an advisory write lock.
package project
