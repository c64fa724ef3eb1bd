package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/inkwellbooks/inkwell-backend/pkg/auth"
	"github.com/inkwellbooks/inkwell-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "inkwell-test",
		ExpirationMinutes: 60,
	}
}

func TestAuthSeedsCustomerContext(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	customerID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: customerID,
		Email:      "reader@example.com",
		JTI:        uuid.NewString(),
	})
	require.NoError(t, err)

	var seenCustomer uuid.UUID
	var seenEmail string
	handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenCustomer = CustomerIDFromContext(r.Context())
		seenEmail = EmailFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, customerID, seenCustomer)
	assert.Equal(t, "reader@example.com", seenEmail)
}

func TestAuthRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()

	cases := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "empty bearer", header: "Bearer "},
		{name: "garbage token", header: "Bearer not.a.jwt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := Auth(cfg, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestAuthRejectsWrongIssuer(t *testing.T) {
	t.Parallel()

	minted := testJWTConfig()
	minted.Issuer = "someone-else"
	token, err := pkgauth.MintAccessToken(minted, time.Now(), pkgauth.AccessTokenPayload{
		CustomerID: uuid.New(),
		JTI:        uuid.NewString(),
	})
	require.NoError(t, err)

	handler := Auth(testJWTConfig(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
