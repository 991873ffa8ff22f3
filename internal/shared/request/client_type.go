package request

import "strings"

type ClientType string

const (
	ClientWeb    ClientType = "WEB"
	ClientMobile ClientType = "MOBILE"
	ClientAPI    ClientType = "API"
)

// ResolveClientType trusts an explicit X-Client-Type header and otherwise
// guesses from the user agent. Browsers get cookies, everything else reads
// the token from the body.
func ResolveClientType(header, userAgent string) ClientType {
	switch ClientType(strings.ToUpper(strings.TrimSpace(header))) {
	case ClientWeb:
		return ClientWeb
	case ClientMobile:
		return ClientMobile
	case ClientAPI:
		return ClientAPI
	}

	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "okhttp"), strings.Contains(ua, "dart"), strings.Contains(ua, "cfnetwork"):
		return ClientMobile
	case strings.Contains(ua, "mozilla"):
		return ClientWeb
	default:
		return ClientAPI
	}
}

func IsWebClient(t ClientType) bool {
	return t == ClientWeb
}
