package nanitws

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// ConnectRequest is the user input of a connect attempt.
type ConnectRequest struct {
	Host string `validate:"required"`
	Port int    `validate:"min=1,max=65535"`
}

const (
	msgHostRequired = "Please enter an IP address"
	msgPortRequired = "Please enter a port number"
	msgPortRange    = "Port must be between 1 and 65535"
)

// ValidateConnectRequest trims the host and checks both fields. It returns the endpoint
// to dial or a *ValidationError.
func ValidateConnectRequest(req ConnectRequest) (Endpoint, error) {
	req.Host = strings.TrimSpace(req.Host)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return Endpoint{}, &ValidationError{Field: "request", Reason: err.Error()}
		}
		switch verrs[0].Field() {
		case "Host":
			return Endpoint{}, &ValidationError{Field: "host", Reason: msgHostRequired}
		default:
			return Endpoint{}, &ValidationError{Field: "port", Reason: msgPortRange}
		}
	}

	return Endpoint{Host: req.Host, Port: req.Port}, nil
}

// ParsePort converts free-form port input.
func ParsePort(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "port", Reason: msgPortRequired}
	}
	port, err := strconv.Atoi(s)
	if err != nil {
		return 0, &ValidationError{Field: "port", Reason: msgPortRange}
	}
	return port, nil
}
