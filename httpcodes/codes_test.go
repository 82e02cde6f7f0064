package httpcodes

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCodeDict_DescriptionOnly(t *testing.T) {
	for code, e := range All() {
		got := GenerateCodeDict([]int{code}, true)
		assert.Equal(t, map[int]any{code: e.Description}, got, "code %d", code)
	}
}

func TestGenerateCodeDict_WithLink(t *testing.T) {
	for code, e := range All() {
		got := GenerateCodeDict([]int{code}, false)
		require.Len(t, got, 1)
		entry, ok := got[code].(Entry)
		require.True(t, ok, "code %d is %T", code, got[code])
		assert.Equal(t, e.Description, entry.Description)

		u, err := url.Parse(entry.Link)
		require.NoError(t, err)
		assert.Equal(t, "https", u.Scheme)
		assert.NotEmpty(t, u.Host)
	}
}

func TestGenerateCodeDict(t *testing.T) {
	tests := []struct {
		name            string
		codes           []int
		descriptionOnly bool
		want            map[int]any
	}{
		{"valid codes", []int{200, 404}, true, map[int]any{200: "OK", 404: "Not Found"}},
		{"unknown code skipped", []int{200, 999}, true, map[int]any{200: "OK"}},
		{"only unknown", []int{999}, false, map[int]any{}},
		{"unknown description only", []int{999}, true, map[int]any{}},
		{"empty", []int{}, false, map[int]any{}},
		{"nil", nil, true, map[int]any{}},
		{"duplicates collapse", []int{404, 404}, true, map[int]any{404: "Not Found"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateCodeDict(tt.codes, tt.descriptionOnly))
		})
	}
}

func TestGenerateCodeDict_Teapot(t *testing.T) {
	got := GenerateCodeDict([]int{200, 404, 418}, false)
	assert.Len(t, got, 3)
	assert.Equal(t, "I'm a teapot", got[418].(Entry).Description)
}

func TestTableCompleteness(t *testing.T) {
	want := []int{
		100, 101, 102, 103,
		200, 201, 202, 203, 204, 205, 206, 207, 208, 226,
		300, 301, 302, 303, 304, 305, 306, 307, 308,
		400, 401, 402, 403, 404, 405, 406, 407, 408, 409, 410, 411, 412, 413, 414, 415, 416, 417, 418,
		421, 422, 423, 424, 425, 426, 428, 429, 431, 451,
		500, 501, 502, 503, 504, 505, 506, 507, 508, 510, 511,
	}
	assert.Equal(t, want, All().Codes())
}

func TestAllReturnsCopy(t *testing.T) {
	t1 := All()
	delete(t1, 200)
	_, ok := Lookup(200)
	assert.True(t, ok)
	assert.Contains(t, All(), 200)
}

func TestForMethod(t *testing.T) {
	tests := []struct {
		method string
		has    []int
		hasNot []int
	}{
		{http.MethodGet, []int{200, 206, 304, 502}, []int{201}},
		{http.MethodPost, []int{201, 415, 409}, []int{206}},
		{http.MethodPut, []int{204, 412}, []int{201}},
		{"patch", []int{204, 412}, []int{415}},
		{http.MethodDelete, []int{205, 204}, []int{413}},
		{http.MethodOptions, CommonCodes, []int{418}},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			got := ForMethod(tt.method)
			for _, code := range CommonCodes {
				assert.Contains(t, got, code)
			}
			for _, code := range tt.has {
				assert.Contains(t, got, code)
			}
			for _, code := range tt.hasNot {
				assert.NotContains(t, got, code)
			}
		})
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, Filter([]int{404, 200})))

	var got map[string]Entry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "OK", got["200"].Description)
	assert.Equal(t, "https://developer.mozilla.org/en-US/docs/Web/HTTP/Status/404", got["404"].Link)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte(`"200"`)), bytes.Index(buf.Bytes(), []byte(`"404"`)))
}

func TestAbortHandlers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.NoRoute(NoRoute())
	r.NoMethod(NoMethod())
	r.GET("/only-get", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/custom", func(c *gin.Context) { Abort(c, 599) })

	tests := []struct {
		name   string
		method string
		path   string
		status int
		desc   string
	}{
		{"no route", http.MethodGet, "/missing", http.StatusNotFound, "Not Found"},
		{"no method", http.MethodPost, "/only-get", http.StatusMethodNotAllowed, "Method Not Allowed"},
		{"outside table", http.MethodGet, "/custom", 599, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, float64(tt.status), body["code"])
			assert.Equal(t, tt.desc, body["description"])
		})
	}
}
