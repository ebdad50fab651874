// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// In Clean Architecture / Hexagonal Architecture, ports are the boundaries
// between the application core and the outside world. They define what the
// application needs from external systems without specifying how those needs
// are fulfilled.
//
// # Port Interfaces
//
//   - [KeyLoader]: Loads service-account signing material
//   - [TokenFetcher]: Exchanges signing material for an access token
//   - [PublishTransport]: Issues the topic publish call
//   - [Publisher]: Publishes one batch (implemented by internal/publisher)
//   - [RecordSource]: Produces records for the shipping loop
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) and the publishing core depend only on
// these interfaces. Infrastructure adapters (internal/adapters) implement them
// with concrete implementations (OAuth2, HTTP, zerolog, etc.).
package ports
