package http

import (
	"net/url"
	"strings"
)

// ParseNextLink extracts the rel="next" target from an RFC 5988 Link header.
// It returns the empty string when the header carries no next relation.
func ParseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}

		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		if target == "" {
			continue
		}

		for _, param := range sections[1:] {
			key, value, found := strings.Cut(strings.TrimSpace(param), "=")
			if !found || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}

			if strings.Trim(strings.TrimSpace(value), `"`) == "next" {
				return target
			}
		}
	}

	return ""
}

// resolveURL resolves ref against base, so relative next links become
// absolute.
func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	refURL, err := url.Parse(ref)
	if err != nil {
		return "", err
	}

	return baseURL.ResolveReference(refURL).String(), nil
}

// sameOrigin reports whether two absolute URLs share scheme and host.
func sameOrigin(a, b string) bool {
	urlA, errA := url.Parse(a)
	urlB, errB := url.Parse(b)

	if errA != nil || errB != nil {
		return false
	}

	return strings.EqualFold(urlA.Scheme, urlB.Scheme) && strings.EqualFold(urlA.Host, urlB.Host)
}
