package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// closeNotifyRecorder lets httptest.ResponseRecorder satisfy http.CloseNotifier,
// which gin's response writer requires when httputil.ReverseProxy serves through it.
type closeNotifyRecorder struct {
	*httptest.ResponseRecorder
}

func (closeNotifyRecorder) CloseNotify() <-chan bool { return make(chan bool) }

func TestReverseProxy_StripsPrefix(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer backend.Close()

	p, err := NewReverseProxy(backend.URL, "/upstream", quietLogger())
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/upstream/*path", ProxyHandler(p, quietLogger()))

	req := httptest.NewRequest(http.MethodGet, "/upstream/api/ProductList?search=lamp&page=2", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := closeNotifyRecorder{httptest.NewRecorder()}
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, "/api/ProductList", gotPath)
	assert.Equal(t, "search=lamp&page=2", gotQuery)
	assert.Empty(t, gotAuth)
}

func TestReverseProxy_BadGateway(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	target := backend.URL
	backend.Close()

	p, err := NewReverseProxy(target, "/upstream", quietLogger())
	require.NoError(t, err)

	w := httptest.NewRecorder()
	p.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/upstream/x", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestNewReverseProxy_InvalidTarget(t *testing.T) {
	_, err := NewReverseProxy("not a url", "", quietLogger())
	assert.Error(t, err)
	_, err = NewReverseProxy("://bad", "", quietLogger())
	assert.Error(t, err)
}
