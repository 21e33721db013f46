// Package sdk is a client for the pipeline backend API.
//
// Every call needs an access token, and calls scoped to an entity need its
// name. When either is missing the call fails with *MissingCredentialError
// before any network I/O happens.
//
//	c := sdk.New("https://api.example.com/v1beta", sdk.WithAccessToken(token))
//	defs, err := c.ListConnectorDefinitions(ctx)
package sdk
