// Package tenant maps inbound host names to tenant keys.
package tenant

import (
	"strings"
)

const wwwLabel = "www"

// Resolver extracts a tenant key from a Host header value.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	baseDomain     string
	platformSuffix string
}

// NewResolver builds a resolver for hosts under baseDomain (e.g. "storeup.com")
// and, as a fallback, hosts under a hosting platform suffix (e.g. ".onrender.com").
// Either may be empty to disable that rule.
func NewResolver(baseDomain, platformSuffix string) *Resolver {
	baseDomain = strings.Trim(strings.ToLower(strings.TrimSpace(baseDomain)), ".")
	platformSuffix = strings.ToLower(strings.TrimSpace(platformSuffix))
	if platformSuffix != "" && !strings.HasPrefix(platformSuffix, ".") {
		platformSuffix = "." + platformSuffix
	}
	return &Resolver{baseDomain: baseDomain, platformSuffix: platformSuffix}
}

func (r *Resolver) BaseDomain() string {
	return r.baseDomain
}

// Resolve returns the tenant key for host, or ok=false when the host
// carries no tenant: the base-domain apex and its www host, IP literals
// and unrelated domains. Platform hosts always yield their first label.
func (r *Resolver) Resolve(host string) (key string, ok bool) {
	host = normalizeHost(host)
	if host == "" {
		return "", false
	}

	if r.baseDomain != "" {
		if host == r.baseDomain {
			return "", false
		}
		if sub, found := strings.CutSuffix(host, "."+r.baseDomain); found {
			if sub == "" || sub == wwwLabel {
				return "", false
			}
			return sub, true
		}
	}

	if r.platformSuffix != "" && strings.HasSuffix(host, r.platformSuffix) && strings.Count(host, ".") >= 2 {
		first, _, _ := strings.Cut(host, ".")
		if first == "" {
			return "", false
		}
		return first, true
	}

	return "", false
}

// normalizeHost lowercases host and strips the port. IPv6 literals,
// bracketed or bare, normalize to "" since they never carry a tenant.
func normalizeHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" || host[0] == '[' {
		return ""
	}
	switch strings.Count(host, ":") {
	case 0:
	case 1:
		host = host[:strings.IndexByte(host, ':')]
	default:
		return ""
	}
	host = strings.TrimSuffix(host, ".")
	if hasUpper(host) {
		host = strings.ToLower(host)
	}
	return host
}

func hasUpper(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			return true
		}
	}
	return false
}

// FullURL rebuilds the public URL of a tenant from the host it was reached on.
func FullURL(key, host string) string {
	host = normalizeHost(host)
	if key == "" {
		return "https://" + host
	}
	if _, rest, found := strings.Cut(host, "."); found {
		return "https://" + key + "." + rest
	}
	return "https://" + key
}
