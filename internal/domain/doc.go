// Package domain contains the core domain entities and value objects for pubship.
//
// This package represents the innermost layer of the Clean Architecture. It has
// no dependencies on infrastructure concerns (HTTP, file system, logging) and
// contains only pure business logic.
//
// # Entities
//
//   - [Record]: A single structured log entry
//   - [Batch]: An ordered aggregate of records published as one message
//   - [Settings]: Resolved publisher configuration with validation rules
//   - [Outcome]: The classified result of one publish attempt
//
// # Errors
//
// [ConfigError] is fatal and raised once at construction. [AuthError] and
// [PublishError] are retryable; use [IsRetryable] to decide.
package domain
