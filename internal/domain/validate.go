// Package domain implements custom-domain validation, DNS instruction
// rendering, and the verification check against the hosting platform.
package domain

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Result is the outcome of a single validation call. Immutable, never
// persisted.
type Result struct {
	Valid    bool
	Hostname string // normalized hostname, set only when Valid
	IsApex   bool   // true when the hostname is exactly its registrable domain
	Err      string // user-facing reason, set only when !Valid
}

// DefaultBlocklist covers platform-owned and well-known free-hosting
// suffixes that must never be attached as custom domains.
var DefaultBlocklist = []string{
	"localhost",
	"pagecrest.app",
	"pagecrest.dev",
	"pagecrest.com",
	"api.pagecrest.com",
	"now.sh",
	"netlify.app",
	"herokuapp.com",
}

const maxHostnameLen = 253

// labelPattern is the allowed shape of one dot-separated DNS label.
var labelPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Validator performs pure syntax and policy checks on raw domain input.
// It does no I/O and is safe for concurrent use.
type Validator struct {
	blocked []string
}

// NewValidator creates a Validator with the given blocklist. A nil blocklist
// selects DefaultBlocklist.
func NewValidator(blocked []string) *Validator {
	if blocked == nil {
		blocked = DefaultBlocklist
	}
	return &Validator{blocked: blocked}
}

// Validate normalizes raw and checks it against syntax, length, blocklist,
// and public-suffix rules.
func (v *Validator) Validate(raw string) Result {
	hostname := normalize(raw)
	if hostname == "" {
		return Result{Err: "Domain is required"}
	}

	for _, suffix := range v.blocked {
		if hostname == suffix || strings.HasSuffix(hostname, "."+suffix) {
			return Result{Err: fmt.Sprintf("%s domains are not allowed", suffix)}
		}
	}

	if len(hostname) > maxHostnameLen {
		return Result{Err: "Invalid domain name"}
	}
	for _, label := range strings.Split(hostname, ".") {
		if len(label) > 63 || !labelPattern.MatchString(label) {
			return Result{Err: "Invalid domain name"}
		}
	}

	// The suffix must be a real ICANN-managed public suffix and the hostname
	// must contain a registrable domain below it.
	if _, icann := publicsuffix.PublicSuffix(hostname); !icann {
		return Result{Err: "Invalid domain name"}
	}
	registrable, err := publicsuffix.EffectiveTLDPlusOne(hostname)
	if err != nil {
		return Result{Err: "Invalid domain name"}
	}

	return Result{
		Valid:    true,
		Hostname: hostname,
		IsApex:   hostname == registrable,
	}
}

// normalize lowercases raw and strips scheme, path, trailing dot, and
// surrounding whitespace.
func normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSuffix(s, ".")
}
