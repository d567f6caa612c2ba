package http1

import "strings"

// methodNames are the request methods the parser accepts, the same set
// joyent's http_parser recognises.
var methodNames = []string{
	"DELETE", "GET", "HEAD", "POST", "PUT", "CONNECT", "OPTIONS", "TRACE",
	"COPY", "LOCK", "MKCOL", "MOVE", "PROPFIND", "PROPPATCH", "SEARCH", "UNLOCK",
	"BIND", "REBIND", "UNBIND", "ACL",
	"REPORT", "MKACTIVITY", "CHECKOUT", "MERGE",
	"M-SEARCH", "NOTIFY", "SUBSCRIBE", "UNSUBSCRIBE",
	"PATCH", "PURGE", "MKCALENDAR", "LINK", "UNLINK", "SOURCE",
}

func isMethod(tok []byte) bool {
	for _, m := range methodNames {
		if m == string(tok) {
			return true
		}
	}
	return false
}

func hasMethodPrefix(tok []byte) bool {
	for _, m := range methodNames {
		if strings.HasPrefix(m, string(tok)) {
			return true
		}
	}
	return false
}

// isTchar reports whether c may appear in a token (RFC 9110 5.6.2).
func isTchar(c byte) bool {
	if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
		return true
	}
	switch c {
	case '!', '#', '$', '%', '&', '\'', '*', '+', '-', '.', '^', '_', '`', '|', '~':
		return true
	}
	return false
}

func isValueByte(c byte) bool {
	return c == '\t' || (c >= 0x20 && c != 0x7f)
}

// ValidHeaderKey reports whether k is a non-empty token.
func ValidHeaderKey(k string) bool {
	if k == "" {
		return false
	}
	for i := 0; i < len(k); i++ {
		if !isTchar(k[i]) {
			return false
		}
	}
	return true
}

// SanitizeHeaderValue removes CR/LF and control chars except HTAB.
func SanitizeHeaderValue(v string) string {
	clean := true
	for i := 0; i < len(v); i++ {
		if !isValueByte(v[i]) {
			clean = false
			break
		}
	}
	if clean {
		return v
	}
	var b strings.Builder
	b.Grow(len(v))
	for i := 0; i < len(v); i++ {
		if c := v[i]; isValueByte(c) {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Very small canonicalizer to avoid importing textproto here.
func canonicalHeaderKey(k []byte) string {
	b := []byte(strings.ToLower(string(k)))
	upper := true
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			if upper {
				b[i] = c - 'a' + 'A'
			}
			upper = false
			continue
		}
		upper = c == '-'
	}
	return string(b)
}
