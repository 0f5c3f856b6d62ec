// Package services implements the driving port interfaces.
// Services contain the core business logic of docqa: chunk storage,
// retrieval, answer resolution and settings. They orchestrate calls to
// driven ports and never import an adapter directly.
package services
