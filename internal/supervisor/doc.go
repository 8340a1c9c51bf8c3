// PelixFlow - AI Content Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pelixflow

/*
Package supervisor runs PelixFlow's long-lived services under suture v4.

	RootSupervisor ("pelixflow")
	├── StorageSupervisor ("storage-layer")
	│   ├── document-store-gc
	│   └── session-sweeper
	└── APISupervisor ("api-layer")
	    └── http-server

A crashing GC loop is restarted without touching the HTTP server. Supervisor
events are logged through sutureslog, bridged to zerolog by
logging.NewSlogLogger.
*/
package supervisor
