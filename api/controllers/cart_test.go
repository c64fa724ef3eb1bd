package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellbooks/inkwell-backend/api/middleware"
	"github.com/inkwellbooks/inkwell-backend/internal/cart"
	"github.com/inkwellbooks/inkwell-backend/pkg/db/models"
	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
)

type stubCartService struct {
	addLine *models.CartLine
	addErr  error
	view    *cart.View
}

func (s *stubCartService) Add(_ context.Context, _ uuid.UUID, _ cart.AddInput) (*models.CartLine, error) {
	return s.addLine, s.addErr
}

func (s *stubCartService) SetQuantity(_ context.Context, _, _ uuid.UUID, _ int) (*models.CartLine, error) {
	return s.addLine, s.addErr
}

func (s *stubCartService) Remove(_ context.Context, _ uuid.UUID, _ []uuid.UUID) error {
	return s.addErr
}

func (s *stubCartService) ToggleSave(_ context.Context, _, _ uuid.UUID, _ bool) (*models.CartLine, error) {
	return s.addLine, s.addErr
}

func (s *stubCartService) List(_ context.Context, _ uuid.UUID) (*cart.View, error) {
	return s.view, s.addErr
}

func authedRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.WithCustomerID(req.Context(), uuid.New()))
}

func TestCartAddWritesLineEnvelope(t *testing.T) {
	t.Parallel()

	line := &models.CartLine{ID: uuid.New(), BookID: uuid.New(), Quantity: 2}
	handler := CartAdd(&stubCartService{addLine: line}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/add",
		`{"book_id":"`+line.BookID.String()+`","quantity":2}`))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, line.ID.String(), body["line_id"])
	assert.Equal(t, float64(2), body["quantity"])
}

func TestCartAddRejectsUnauthenticated(t *testing.T) {
	t.Parallel()

	handler := CartAdd(&stubCartService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add",
		strings.NewReader(`{"book_id":"`+uuid.NewString()+`","quantity":1}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCartAddRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	handler := CartAdd(&stubCartService{}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/add", `{"quantity":0}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartAddBusinessFailureAnswers200(t *testing.T) {
	t.Parallel()

	handler := CartAdd(&stubCartService{
		addErr: pkgerrors.New(pkgerrors.CodeNotFound, "book not found"),
	}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/v1/cart/add",
		`{"book_id":"`+uuid.NewString()+`","quantity":1}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "book not found")
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCartFetchSplitsActiveAndSaved(t *testing.T) {
	t.Parallel()

	view := &cart.View{
		Active: []cart.LineView{{ID: uuid.New(), Title: "Dune", Quantity: 1}},
		Saved:  []cart.LineView{{ID: uuid.New(), Title: "Hyperion", Quantity: 1, Saved: true}},
	}
	handler := CartFetch(&stubCartService{view: view}, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/v1/cart", ""))

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Success bool            `json:"success"`
		Cart    []cart.LineView `json:"cart"`
		Saved   []cart.LineView `json:"saved"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Cart, 1)
	require.Len(t, body.Saved, 1)
	assert.Equal(t, "Dune", body.Cart[0].Title)
	assert.Equal(t, "Hyperion", body.Saved[0].Title)
}
