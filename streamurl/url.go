// Package streamurl implements the URL value: a parsed URL carrying
// scheme/host/path/query, used by the stream core to remember where it
// was opened from and by the URL dispatcher to pick a back-end. Built on
// net/url.
package streamurl

import (
	"net/url"

	"gitlab.com/NebulousLabs/errors"
)

// URL is the parsed form of a stream's source/destination address.
type URL struct {
	Scheme string
	Host   string
	Path   string
	Query  url.Values

	raw string
}

// Parse parses s into a URL. A string with no "://" is treated as a bare
// file path: the scheme is left empty here, and the dispatcher fills in
// "file" when it sees an empty scheme.
func Parse(s string) (URL, error) {
	if s == "" {
		return URL{}, errors.New("empty url")
	}
	u, err := url.Parse(s)
	if err != nil {
		return URL{}, errors.AddContext(err, "unable to parse url")
	}
	out := URL{
		Scheme: u.Scheme,
		Host:   u.Host,
		Path:   u.Path,
		Query:  u.Query(),
		raw:    s,
	}
	// A bare path such as "data.bin" or "./data.bin" parses with an empty
	// scheme and the whole string landing in Path. Should a scheme-less
	// parse leave Path empty but Opaque set, Opaque is copied into Path so
	// file:// never has to special-case it.
	if out.Scheme == "" && out.Path == "" && u.Opaque != "" {
		out.Path = u.Opaque
	}
	return out, nil
}

// String reconstructs the original input. Parsing String() again yields an
// equivalent URL.
func (u URL) String() string {
	return u.raw
}

// Equal reports whether two URLs were parsed from equivalent input.
func (u URL) Equal(other URL) bool {
	return u.Scheme == other.Scheme &&
		u.Host == other.Host &&
		u.Path == other.Path &&
		u.Query.Encode() == other.Query.Encode()
}

// WithoutScheme reports the data:// body or a data:// body with a scheme
// prefix already stripped — used by the data back-end, for which "host" and
// "path" have no meaning and the remainder of the URL after "data://" is
// the literal content.
func (u URL) WithoutScheme() string {
	if idx := len(u.Scheme) + 3; u.Scheme != "" && len(u.raw) >= idx && u.raw[len(u.Scheme):idx] == "://" {
		return u.raw[idx:]
	}
	return u.raw
}
