package gql

import (
	"net/http"
	"time"

	genqlientgraphql "github.com/Khan/genqlient/graphql"
	"site/internal/config"
)

const defaultTimeout = 15 * time.Second

func NewClient(cfg config.ContentConfig) genqlientgraphql.Client {
	timeout := cfg.GraphQLTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &http.Client{
		Timeout: timeout,
		Transport: &authTransport{
			base:  http.DefaultTransport,
			token: cfg.GraphQLAuthToken,
		},
	}

	return genqlientgraphql.NewClient(cfg.GraphQLEndpoint, client)
}

type authTransport struct {
	base  http.RoundTripper
	token string
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}
