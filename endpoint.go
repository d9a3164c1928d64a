package nanitws

import (
	"net"
	"net/url"
	"strconv"
)

// EndpointPath is the fixed path the birthday server listens on.
const EndpointPath = "/nanit"

// Endpoint identifies the server for a single connect attempt.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns ws://host:port/nanit.
func (e Endpoint) URL() url.URL {
	return url.URL{Scheme: "ws", Host: e.Addr(), Path: EndpointPath}
}

func (e Endpoint) String() string {
	return e.Addr()
}
