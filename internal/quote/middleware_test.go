package quote

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/storefront-kit/pricing-api/internal/common"
)

func TestCustomerContext(t *testing.T) {
	var got string
	var ok bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = common.CustomerID(r.Context())
	})

	req := httptest.NewRequest(http.MethodPost, "/pricing/final-price", nil)
	req.Header.Set(CustomerHeader, " cust-9 ")
	CustomerContext(next).ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ok)
	require.Equal(t, "cust-9", got)

	ok = false
	CustomerContext(next).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/pricing/final-price", nil))
	require.False(t, ok)
}
