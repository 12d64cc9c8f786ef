// Package thclient is the entry point for creating TeamHub API clients.
//
// The zero-friction paths:
//
//	client, err := thclient.NewWithToken("https://api.teamhub.com", token)
//	client, err := thclient.NewWithClientCredentials("https://api.teamhub.com", id, secret)
//
// or with a full configuration, typically loaded from the environment:
//
//	cfg, err := teamhub.LoadConfigFromEnv()
//	client, err := thclient.New(cfg)
//
// Exactly one source of authentication must be supplied: credentials in the
// config, a custom TokenProvider, or a custom AuthStrategy.
package thclient
