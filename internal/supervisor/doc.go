// Animerec - Anime Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animerec

/*
Package supervisor runs the long-lived parts of the service under a suture v4
supervisor tree.

The tree has three layers so a failure in one does not stop the others:

	animerec
	├── training-layer     scheduled and startup training
	├── maintenance-layer  cache sweeps, value-log GC, limiter cleanup
	└── api-layer          HTTP server

Supervisor events are logged through sutureslog into the zerolog stream.
Services live in the services subpackage.
*/
package supervisor
