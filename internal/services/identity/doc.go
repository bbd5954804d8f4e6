// Package identity manages the device's pseudonymous AnonymousID.
//
// The identifier is generated once from a secure random source, persisted
// via the domain.DeviceStore and reused for every session on the device.
package identity
