package graphql

import (
	"context"
	"net/http"
)

// HeaderAdminSecret carries the Hasura admin secret.
const HeaderAdminSecret = "x-hasura-admin-secret" //nolint:gosec // header name, not a credential

// TokenSource yields the current bearer token. *session.Cache satisfies it.
type TokenSource interface {
	Token(ctx context.Context) (string, bool)
}

// Link decorates an outgoing request before it is sent.
type Link interface {
	Apply(ctx context.Context, req *http.Request)
}

// LinkFunc adapts a function to Link.
type LinkFunc func(ctx context.Context, req *http.Request)

func (f LinkFunc) Apply(ctx context.Context, req *http.Request) { f(ctx, req) }

type linkChain []Link

func (c linkChain) Apply(ctx context.Context, req *http.Request) {
	for _, l := range c {
		if l == nil {
			continue
		}
		l.Apply(ctx, req)
	}
}

type adminSecretLink struct {
	secret string
}

// AdminSecretLink sets the admin secret header on every request.
func AdminSecretLink(secret string) Link { return adminSecretLink{secret: secret} }

func (a adminSecretLink) Apply(_ context.Context, req *http.Request) {
	if a.secret == "" {
		return
	}
	req.Header.Set(HeaderAdminSecret, a.secret)
}

type bearerLink struct {
	tokens TokenSource
}

// BearerLink sets Authorization: Bearer <token> whenever tokens has one.
// The token is read per request, so logins and logouts apply immediately.
func BearerLink(tokens TokenSource) Link { return bearerLink{tokens: tokens} }

func (b bearerLink) Apply(ctx context.Context, req *http.Request) {
	if b.tokens == nil {
		return
	}
	tok, ok := b.tokens.Token(ctx)
	if !ok || tok == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+tok)
}
