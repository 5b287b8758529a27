// Package bridge connects the Teleco Daisy cloud to an MQTT broker.
//
// The bridge discovers the account's installations and devices at startup,
// polls their state on a fixed interval, and republishes parsed state as
// retained MQTT messages. Commands arriving on device command topics are
// dispatched to the cloud and answered with acknowledgment messages.
//
// # Architecture
//
//	┌─────────────────┐          ┌─────────────────┐
//	│   Daisy cloud   │   HTTPS  │  Daisy Bridge   │   MQTT
//	│    (vendor)     │◄────────►│   (this pkg)    │◄────────► Consumers
//	└─────────────────┘          └─────────────────┘
//
// # Key Responsibilities
//
//   - Discover installations, rooms and devices after login
//   - Publish a retained discovery inventory per installation
//   - Poll device state and publish retained state messages on change
//   - Dispatch MQTT commands to device behaviors and publish acks
//   - Report per-installation cloud reachability
//
// # Topic Scheme
//
// Device topics follow {prefix}/{category}/{installation}/{device}:
//
//	daisy/state/INST-A/101      retained state (bridge → consumers)
//	daisy/command/INST-A/101    commands (consumers → bridge)
//	daisy/ack/INST-A/101        command outcomes (bridge → consumers)
//	daisy/discovery/INST-A      retained inventory
//	daisy/health/INST-A         retained reachability
//
// # Concurrency
//
// The vendor service shares one session per account, so every cloud call
// (poll refresh or command dispatch) is serialized behind one mutex.
// Command handlers block on the cloud acknowledgment; slow devices delay
// other commands, not the MQTT client.
package bridge
