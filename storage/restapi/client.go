// Package restapi implements the entity repositories on top of the school REST API.
package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"

	"github.com/trezcool/colegio/core"
	"github.com/trezcool/colegio/core/auth"
)

// Client sends authenticated JSON requests to the API.
type Client struct {
	baseURL string
	tokens  auth.TokenStore
	rest    *rest.Client
}

func NewClient(conf core.APIConfig, tokens auth.TokenStore) *Client {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		tokens:  tokens,
		rest:    &rest.Client{HTTPClient: &http.Client{Timeout: timeout}},
	}
}

func itemPath(path string, id int, sub ...string) string {
	p := path + "/" + strconv.Itoa(id)
	for _, s := range sub {
		p += "/" + s
	}
	return p
}

// Send runs an authenticated request and decodes the (possibly enveloped) answer into out.
// A 401 clears the stored token and returns core.ErrUnauthorized.
func (c *Client) Send(ctx context.Context, method rest.Method, path string, in, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	err = c.sendAs(ctx, token, method, path, in, out)
	if err == core.ErrUnauthorized {
		if cErr := c.tokens.Clear(ctx); cErr != nil {
			return errors.Wrap(cErr, "clearing token")
		}
	}
	return err
}

// sendAs runs a request with the bearer token; a 401 is core.ErrUnauthorized.
func (c *Client) sendAs(ctx context.Context, token string, method rest.Method, path string, in, out interface{}) error {
	req, err := c.newRequest(method, path, in)
	if err != nil {
		return err
	}
	req.Headers["Authorization"] = "Bearer " + token

	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if res.StatusCode == http.StatusUnauthorized {
		return core.ErrUnauthorized
	}
	return decodeResponse(res, out)
}

// sendAnonymous runs a request without token; 401 is a regular API error here.
func (c *Client) sendAnonymous(ctx context.Context, method rest.Method, path string, in, out interface{}) error {
	req, err := c.newRequest(method, path, in)
	if err != nil {
		return err
	}
	res, err := c.rest.SendWithContext(ctx, req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	return decodeResponse(res, out)
}

func (c *Client) newRequest(method rest.Method, path string, in interface{}) (rest.Request, error) {
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: map[string]string{"Accept": "application/json"},
	}
	if in != nil {
		body, err := json.Marshal(in)
		if err != nil {
			return req, errors.Wrap(err, "encoding request body")
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}
	return req, nil
}

func decodeResponse(res *rest.Response, out interface{}) error {
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return core.NewAPIError(res.StatusCode, errorMessage(res.Body))
	}
	if out == nil || strings.TrimSpace(res.Body) == "" {
		return nil
	}
	return errors.Wrap(json.Unmarshal(unwrapData([]byte(res.Body)), out), "decoding response")
}

// unwrapData returns the "data" member of enveloped answers ({"data": ..., "message": ...}).
func unwrapData(body []byte) []byte {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return body
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil || len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return body
	}
	return envelope.Data
}

// errorMessage extracts the human message of an error answer. The API uses
// "message", "error" or "mensaje", holding a string or a list of strings.
func errorMessage(body string) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return ""
	}
	for _, field := range []string{"message", "mensaje", "error"} {
		raw, ok := payload[field]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return strings.Join(list, ". ")
		}
	}
	return ""
}
