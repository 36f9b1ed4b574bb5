package quote

import (
	"net/http"
	"strings"

	"github.com/storefront-kit/pricing-api/internal/common"
)

// CustomerHeader is the header the storefront gateway uses to forward the
// authenticated customer identifier.
const CustomerHeader = "X-Customer-Id"

// CustomerContext lifts the gateway-forwarded customer identifier into the
// request context so request logs and handlers can read it.
func CustomerContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(CustomerHeader)); id != "" {
			r = r.WithContext(common.WithCustomerID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
