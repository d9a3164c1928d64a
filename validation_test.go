package nanitws

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateConnectRequest(t *testing.T) {
	tests := []struct {
		name   string
		req    ConnectRequest
		want   Endpoint
		field  string
		reason string
	}{
		{name: "valid", req: ConnectRequest{Host: "192.168.1.10", Port: 8080}, want: Endpoint{Host: "192.168.1.10", Port: 8080}},
		{name: "trims host", req: ConnectRequest{Host: "  localhost ", Port: 1}, want: Endpoint{Host: "localhost", Port: 1}},
		{name: "max port", req: ConnectRequest{Host: "h", Port: 65535}, want: Endpoint{Host: "h", Port: 65535}},
		{name: "empty host", req: ConnectRequest{Host: "", Port: 8080}, field: "host", reason: "Please enter an IP address"},
		{name: "blank host", req: ConnectRequest{Host: "   ", Port: 8080}, field: "host", reason: "Please enter an IP address"},
		{name: "port zero", req: ConnectRequest{Host: "h", Port: 0}, field: "port", reason: "Port must be between 1 and 65535"},
		{name: "port negative", req: ConnectRequest{Host: "h", Port: -1}, field: "port", reason: "Port must be between 1 and 65535"},
		{name: "port too big", req: ConnectRequest{Host: "h", Port: 65536}, field: "port", reason: "Port must be between 1 and 65535"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep, err := ValidateConnectRequest(tt.req)
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, ep)
				return
			}

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.reason, verr.Reason)
		})
	}
}

func TestParsePort(t *testing.T) {
	port, err := ParsePort(" 8080 ")
	require.NoError(t, err)
	assert.Equal(t, 8080, port)

	_, err = ParsePort("")
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Please enter a port number", verr.Reason)

	_, err = ParsePort("http")
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Port must be between 1 and 65535", verr.Reason)
}

func TestEndpoint_URL(t *testing.T) {
	u := Endpoint{Host: "10.0.0.2", Port: 8080}.URL()
	assert.Equal(t, "ws://10.0.0.2:8080/nanit", u.String())
}
