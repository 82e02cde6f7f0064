// Package httpcodes holds a static table of HTTP status codes and helpers to
// pick the subset an endpoint documents or responds with.
//
// The table is built once at init and never mutated; every exported helper
// returns fresh maps so callers are free to modify what they get back.
package httpcodes

import (
	"fmt"
	"net/http"
	"strings"
)

const mdnStatusURL = "https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/%d"

// Entry describes a single status code.
type Entry struct {
	Code        int    `json:"-"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Table maps a status code to its entry.
type Table map[int]Entry

var descriptions = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	102: "Processing",
	103: "Early Hints",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	207: "Multi-Status",
	208: "Already Reported",
	226: "IM Used",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	306: "(Unused)",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Payload Too Large",
	414: "URI Too Long",
	415: "Unsupported Media Type",
	416: "Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a teapot",
	421: "Misdirected Request",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	425: "Too Early",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	451: "Unavailable For Legal Reasons",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	510: "Not Extended",
	511: "Network Authentication Required",
}

// all is the read-only table every helper reads from.
var all = func() Table {
	t := make(Table, len(descriptions))
	for code, desc := range descriptions {
		t[code] = Entry{Code: code, Description: desc, Link: fmt.Sprintf(mdnStatusURL, code)}
	}
	return t
}()

// CommonCodes are documented by every method table.
var CommonCodes = []int{200, 400, 401, 403, 404, 408, 429, 500, 503}

var (
	GetCodes    = Filter(withCommon(206, 304, 307, 410, 418, 502))
	PostCodes   = Filter(withCommon(201, 202, 205, 307, 409, 413, 415, 418))
	PutCodes    = Filter(withCommon(202, 204, 206, 409, 412, 413, 418))
	PatchCodes  = Filter(withCommon(202, 204, 206, 409, 412, 413, 418))
	DeleteCodes = Filter(withCommon(202, 204, 205, 409, 418))
)

func withCommon(extra ...int) []int {
	codes := make([]int, 0, len(CommonCodes)+len(extra))
	codes = append(codes, CommonCodes...)
	return append(codes, extra...)
}

// All returns a copy of the full table.
func All() Table {
	t := make(Table, len(all))
	for code, e := range all {
		t[code] = e
	}
	return t
}

// Lookup returns the entry for code.
func Lookup(code int) (Entry, bool) {
	e, ok := all[code]
	return e, ok
}

// Filter restricts the table to codes. Codes missing from the table are
// skipped.
func Filter(codes []int) Table {
	t := make(Table, len(codes))
	for _, code := range codes {
		if e, ok := all[code]; ok {
			t[code] = e
		}
	}
	return t
}

// Descriptions is Filter with the values reduced to their description.
func Descriptions(codes []int) map[int]string {
	out := make(map[int]string, len(codes))
	for _, code := range codes {
		if e, ok := all[code]; ok {
			out[code] = e.Description
		}
	}
	return out
}

// GenerateCodeDict builds the response map documented for an endpoint. With
// descriptionOnly set, values are the description strings; otherwise they
// are Entry values carrying the description and reference link.
func GenerateCodeDict(codes []int, descriptionOnly bool) map[int]any {
	out := make(map[int]any, len(codes))
	if descriptionOnly {
		for code, desc := range Descriptions(codes) {
			out[code] = desc
		}
		return out
	}
	for code, e := range Filter(codes) {
		out[code] = e
	}
	return out
}

// ForMethod returns the documented table for an HTTP method. Unknown methods
// get the common codes.
func ForMethod(method string) Table {
	var src Table
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		src = GetCodes
	case http.MethodPost:
		src = PostCodes
	case http.MethodPut:
		src = PutCodes
	case http.MethodPatch:
		src = PatchCodes
	case http.MethodDelete:
		src = DeleteCodes
	default:
		return Filter(CommonCodes)
	}
	t := make(Table, len(src))
	for code, e := range src {
		t[code] = e
	}
	return t
}
