// Package comms opens the channel the Fleetspeak client sets up for a
// service it launches.
//
// The Fleetspeak client passes two inherited descriptors through the
// environment: FLEETSPEAK_COMMS_CHANNEL_INFD for messages to the service
// and FLEETSPEAK_COMMS_CHANNEL_OUTFD for messages from it. On Unix the
// values are file descriptors; on Windows they are pipe handles.
//
// On Unix the descriptors are switched to non-blocking mode before they are
// wrapped, so closing the returned files interrupts a blocked read.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package comms
