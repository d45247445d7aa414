// Package cache allows clients to reuse access tokens across processes.
//
// Logging in requires two round-trips to the authentication servers. Using a [TokenCache] allows
// a command-line client to skip the login while a previously obtained access token is still valid.
// The cache holds tokens for several usernames, so the same file may be shared between accounts.
//
// If a TokenCache is exported using its [TokenCache.Export] or [TokenCache.ExportToFile] methods,
// access controls should be used to prevent third parties from reading the data. Cached tokens
// grant the same access to a vehicle as the account password until they expire.
package cache
