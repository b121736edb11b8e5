package service

import (
	"fmt"
	"regexp"
	"strings"
)

// Hosts the platform occupies itself. Tenants may never claim these, nor
// anything beneath a reserved suffix. Checked post-normalization, so the
// www form of each entry is covered as well.
var reservedHosts = map[string]struct{}{
	"ottie.com":      {},
	"app.ottie.com":  {},
	"api.ottie.com":  {},
	"dash.ottie.com": {},
	"ottie.site":     {},
}

var reservedSuffixes = []string{
	".ottie.com",
	".ottie.site",
}

var (
	domainLabelRe = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	domainTLDRe   = regexp.MustCompile(`^[a-z]{2,}$`)
)

// NormalizeDomain lowercases, trims and strips a leading "www." from a
// user-supplied host. Pure and deterministic.
func NormalizeDomain(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	d = strings.TrimSuffix(d, ".")
	d = strings.TrimPrefix(d, "www.")
	return d
}

// ValidateDomainShape checks a normalized host against the supported
// custom-domain grammar: at least three dot-separated DNS labels (the
// platform only serves subdomains, never an apex) and nothing reserved.
func ValidateDomainShape(d string) error {
	if d == "" {
		return &ValidationError{Msg: "domain is required"}
	}
	if len(d) > 253 {
		return &ValidationError{Msg: "domain is too long"}
	}

	labels := strings.Split(d, ".")
	if len(labels) < 3 {
		return &ValidationError{Msg: fmt.Sprintf("%q is an apex domain; only subdomains like listings.%s are supported", d, d)}
	}
	for i, label := range labels {
		if !domainLabelRe.MatchString(label) {
			return &ValidationError{Msg: fmt.Sprintf("%q is not a valid domain name", d)}
		}
		if i == len(labels)-1 && !domainTLDRe.MatchString(label) {
			return &ValidationError{Msg: fmt.Sprintf("%q is not a valid domain name", d)}
		}
	}

	if _, ok := reservedHosts[d]; ok {
		return &ValidationError{Msg: fmt.Sprintf("%q is reserved", d)}
	}
	for _, suffix := range reservedSuffixes {
		if strings.HasSuffix(d, suffix) {
			return &ValidationError{Msg: fmt.Sprintf("%q is reserved", d)}
		}
	}
	return nil
}
