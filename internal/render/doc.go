// Package render turns render requests into external renderer invocations.
//
// Settings describes one render request and is validated up front. Manager
// allocates render versions (rsv001, rsv002, ...) in the project manifest and
// records completed frames. Renderer dispatches a single frame to the Maya
// (Arnold) or Houdini (Karma) adapter. Job ties them together for a whole
// shot and can resume a partially rendered version. Gallery lists rendered
// outputs on disk.
package render
