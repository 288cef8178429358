package vdb

import (
	"context"
	"encoding/base64"

	"google.golang.org/grpc/credentials"
)

const authorizationHeader = "authorization"

// Authenticator attaches credentials to every outgoing call. It is handed to
// the transport at construction time.
type Authenticator interface {
	credentials.PerRPCCredentials
}

// BasicAuth sends base64("username:password") in the authorization header,
// without a scheme prefix, which is what the server expects.
type BasicAuth struct {
	header     string
	requireTLS bool
}

// NewBasicAuth builds a username/password authenticator. requireTLS refuses
// to send the credentials over an insecure connection.
func NewBasicAuth(username, password string, requireTLS bool) *BasicAuth {
	return &BasicAuth{
		header:     base64.StdEncoding.EncodeToString([]byte(username + ":" + password)),
		requireTLS: requireTLS,
	}
}

func (a *BasicAuth) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{authorizationHeader: a.header}, nil
}

func (a *BasicAuth) RequireTransportSecurity() bool { return a.requireTLS }

// TokenAuth sends an API token in the authorization header, encoded the same
// way as BasicAuth.
type TokenAuth struct {
	header     string
	requireTLS bool
}

func NewTokenAuth(token string, requireTLS bool) *TokenAuth {
	return &TokenAuth{
		header:     base64.StdEncoding.EncodeToString([]byte(token)),
		requireTLS: requireTLS,
	}
}

func (a *TokenAuth) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{authorizationHeader: a.header}, nil
}

func (a *TokenAuth) RequireTransportSecurity() bool { return a.requireTLS }
