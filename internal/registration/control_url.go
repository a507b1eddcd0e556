package registration

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DataFlowsPath is appended to the control API base URL to form the endpoint
// the control plane sends transfer commands to.
const DataFlowsPath = "/v1/dataflows"

// ControlURL derives the advertised control endpoint from base.
func ControlURL(base string) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", fmt.Errorf("%w: control api url not configured", ErrInvalidControlURL)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidControlURL, err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return "", fmt.Errorf("%w: %q is not an absolute url", ErrInvalidControlURL, base)
	}
	if u.RawQuery != "" || u.Fragment != "" || u.ForceQuery {
		return "", fmt.Errorf("%w: %q must not carry a query or fragment", ErrInvalidControlURL, base)
	}
	if u.User != nil {
		return "", fmt.Errorf("%w: %q must not carry credentials", ErrInvalidControlURL, base)
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return "", fmt.Errorf("%w: port %q out of range", ErrInvalidControlURL, p)
		}
	}
	// The path is advertised verbatim, so it must already be in escaped form.
	rawPath := base[strings.Index(base, "://")+len("://")+len(u.Host):]
	if rawPath != u.EscapedPath() {
		return "", fmt.Errorf("%w: path %q needs escaping", ErrInvalidControlURL, rawPath)
	}
	return strings.TrimRight(base, "/") + DataFlowsPath, nil
}
