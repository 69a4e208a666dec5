// Package maya drives the mayapy adapter script: USD export of Maya scenes
// and single-frame Arnold renders.
package maya
