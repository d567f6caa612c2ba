package http1

import (
	"errors"
	"iter"
	"strconv"
	"strings"
)

const statusLineOK = "HTTP/1.0 200 OK\r\n"

// AppendResponse appends a 200 response to dst. Fields are written in the
// order hdr yields them. Content-Length is always derived from body; a
// Content-Length field in hdr is dropped, as is any field whose name is not
// a valid token.
func AppendResponse(dst []byte, hdr iter.Seq2[string, string], body []byte) []byte {
	dst = append(dst, statusLineOK...)
	if hdr != nil {
		for k, v := range hdr {
			if !ValidHeaderKey(k) || strings.EqualFold(k, "Content-Length") {
				continue
			}
			dst = appendField(dst, k, SanitizeHeaderValue(v))
		}
	}
	dst = append(dst, "Content-Length:"...)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, "\r\n\r\n"...)
	return append(dst, body...)
}

// AppendStatus appends a bodyless response with the given status code.
// It is used to refuse a request the server could not accept.
func AppendStatus(dst []byte, status int) []byte {
	dst = append(dst, "HTTP/1.0 "...)
	dst = strconv.AppendInt(dst, int64(status), 10)
	dst = append(dst, ' ')
	dst = append(dst, defaultReason(status)...)
	dst = append(dst, "\r\n"...)
	dst = appendField(dst, "Connection", "close")
	return append(dst, "Content-Length:0\r\n\r\n"...)
}

func appendField(dst []byte, k, v string) []byte {
	dst = append(dst, k...)
	dst = append(dst, ':')
	dst = append(dst, v...)
	return append(dst, "\r\n"...)
}

func defaultReason(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 408:
		return "Request Timeout"
	case 413:
		return "Content Too Large"
	case 431:
		return "Request Header Fields Too Large"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	default:
		return ""
	}
}

// StatusFor maps a parser failure to the status used when the server is
// configured to answer malformed requests.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return 200
	case errors.Is(err, ErrHeaderTooLarge):
		return 431
	case errors.Is(err, ErrBodyTooLarge):
		return 413
	case errors.Is(err, ErrUnsupportedFraming):
		return 501
	default:
		return 400
	}
}
