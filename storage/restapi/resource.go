package restapi

import (
	"context"

	"github.com/sendgrid/rest"
)

// resource is a REST collection: GET/POST path, GET/PATCH/DELETE path/{id}.
type resource struct {
	c    *Client
	path string
}

func (r resource) list(ctx context.Context, out interface{}) error {
	return r.c.Send(ctx, rest.Get, r.path, nil, out)
}

func (r resource) get(ctx context.Context, id int, out interface{}) error {
	return r.c.Send(ctx, rest.Get, itemPath(r.path, id), nil, out)
}

func (r resource) create(ctx context.Context, in, out interface{}) error {
	return r.c.Send(ctx, rest.Post, r.path, in, out)
}

func (r resource) update(ctx context.Context, id int, in, out interface{}) error {
	return r.c.Send(ctx, rest.Patch, itemPath(r.path, id), in, out)
}

func (r resource) delete(ctx context.Context, id int) error {
	return r.c.Send(ctx, rest.Delete, itemPath(r.path, id), nil, nil)
}
