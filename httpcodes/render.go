package httpcodes

import (
	"io"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// Codes returns the table's codes in ascending order.
func (t Table) Codes() []int {
	codes := make([]int, 0, len(t))
	for code := range t {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// WriteJSON writes t as an indented JSON object keyed by code.
func WriteJSON(w io.Writer, t Table) error {
	b, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Abort stops the gin chain and responds with the table entry for code.
// Codes outside the table fall back to the stdlib status text.
func Abort(c *gin.Context, code int) {
	e, ok := Lookup(code)
	if !ok {
		e = Entry{Code: code, Description: http.StatusText(code)}
	}
	c.AbortWithStatusJSON(code, gin.H{
		"code":        e.Code,
		"description": e.Description,
		"link":        e.Link,
	})
}

// NoRoute is a gin handler for unmatched routes.
func NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		Abort(c, http.StatusNotFound)
	}
}

// NoMethod is a gin handler for routes matched with the wrong method. The
// engine must have HandleMethodNotAllowed set.
func NoMethod() gin.HandlerFunc {
	return func(c *gin.Context) {
		Abort(c, http.StatusMethodNotAllowed)
	}
}
