// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go with no CGO. Every external call goes through
// a domain.CallPolicy so timeouts and retries are decided by the caller.
package services
