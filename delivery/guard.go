package delivery

import (
	"net"
	"net/url"
	"regexp"
)

// hookURLPathPattern matches the ingest path shape /{hook_token}.
var hookURLPathPattern = regexp.MustCompile(`^/[A-Fa-f0-9]{24}$`)

// IsSelfForward reports whether forwardURL points back at this system's own
// ingest path, which would create a trivial forwarding loop. baseURL is the
// system's configured public base URL (HOOKFREIGHT_BASE_URL).
func IsSelfForward(forwardURL, baseURL string) bool {
	fu, err := url.Parse(forwardURL)
	if err != nil || fu.Host == "" {
		return false
	}
	bu, err := url.Parse(baseURL)
	if err != nil || bu.Host == "" {
		return false
	}

	if hostPort(fu) != hostPort(bu) {
		return false
	}
	return hookURLPathPattern.MatchString(fu.Path)
}

// hostPort returns host:port with the scheme's default port filled in when
// the URL omits it, so http://x.com and http://x.com:80 compare equal.
func hostPort(u *url.URL) string {
	host := u.Hostname()
	port := u.Port()
	if port == "" {
		switch u.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(host, port)
}
