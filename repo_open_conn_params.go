package nanitws

import (
	"context"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
)

type (
	// OpenConnectionParams are the dial parameters for one connection.
	OpenConnectionParams struct {
		URL    url.URL
		Header http.Header
	}

	OpenConnectionParamsGetter func(ctx context.Context, ep Endpoint) (OpenConnectionParams, error)

	OpenConnectionParamsRepo struct {
		logger logger
		getter OpenConnectionParamsGetter
	}
)

const userAgent = "nanitws/1"

// EndpointParams is the default getter: ws://host:port/nanit with a user agent header.
func EndpointParams(_ context.Context, ep Endpoint) (OpenConnectionParams, error) {
	if ep.Host == "" {
		return OpenConnectionParams{}, errors.Wrap(ErrCannotConnect, "empty host")
	}
	header := http.Header{}
	header.Set("User-Agent", userAgent)
	return OpenConnectionParams{URL: ep.URL(), Header: header}, nil
}

func (r OpenConnectionParamsRepo) Get(
	ctx context.Context,
	ep Endpoint,
) (params OpenConnectionParams, err error) {
	getter := r.getter
	if getter == nil {
		getter = EndpointParams
	}
	params, err = getter(ctx, ep)
	if err != nil && r.logger != nil {
		r.logger.Errorf("cannot fetch open connection params for %s: %s", ep, err)
	}
	return
}

func NewOpenConnectionParamsRepo(
	logger logger,
	getter OpenConnectionParamsGetter,
) OpenConnectionParamsRepo {
	return OpenConnectionParamsRepo{getter: getter, logger: logger}
}
