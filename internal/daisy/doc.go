// Package daisy implements a client for the Teleco Daisy remote
// home-automation service.
//
// The client authenticates against the Daisy cloud backend, discovers the
// account's installations, rooms and devices, polls device status, and
// submits control commands (covers, lights, heaters) through the vendor's
// asynchronous command channel.
//
// # Device model
//
// Devices are resolved from their vendor (type, model) pair into a closed
// set of behaviors: slat covers, shade/awning covers, RGB lights, white
// lights, four-level white lights and four-channel heaters. Unknown pairs
// degrade to a generic device that only supports status refresh. Each
// behavior knows how to interpret the raw status-item list into typed state
// and how to translate a high-level intent ("open 66%", "set RGB") into the
// vendor command records the backend expects.
//
// # Command dispatch
//
// Commands are submitted as a batch to the tmate command channel. The
// backend acknowledges asynchronously: the submission returns an action
// reference which is polled until the backend reports a terminal state.
// Polling is bounded by a configurable attempt budget (see Config).
//
// # Concurrency
//
// The client is synchronous and blocking. One session credential is
// established at Login and read by every subsequent call; callers that need
// concurrent control must serialize access or use separate clients.
package daisy
