package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveResolution(t *testing.T) {
	before := testutil.ToFloat64(resolutionsTotal.WithLabelValues("direct_redirect"))

	ObserveResolution("tenant", "direct_redirect", 5*time.Millisecond)
	ObserveResolution("tenant", "direct_redirect", 5*time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(resolutionsTotal.WithLabelValues("direct_redirect")))
}

func TestVisitCounters(t *testing.T) {
	before := testutil.ToFloat64(visitsFlushed)
	AddVisitsFlushed(25)
	assert.Equal(t, before+25, testutil.ToFloat64(visitsFlushed))

	dropped := testutil.ToFloat64(visitsDropped)
	IncVisitDropped()
	assert.Equal(t, dropped+1, testutil.ToFloat64(visitsDropped))
}

func TestIncLinkCreated(t *testing.T) {
	alias := testutil.ToFloat64(linksCreated.WithLabelValues("alias"))
	generated := testutil.ToFloat64(linksCreated.WithLabelValues("generated"))

	IncLinkCreated(true)
	IncLinkCreated(false)

	assert.Equal(t, alias+1, testutil.ToFloat64(linksCreated.WithLabelValues("alias")))
	assert.Equal(t, generated+1, testutil.ToFloat64(linksCreated.WithLabelValues("generated")))
}

func TestHandler(t *testing.T) {
	MustRegister()
	MustRegister()

	ObserveResolution("canonical", "not_found", time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "link_resolutions_total"))
}
