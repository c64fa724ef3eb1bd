package responses

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/inkwellbooks/inkwell-backend/pkg/errors"
	"github.com/inkwellbooks/inkwell-backend/pkg/types"
)

func TestWriteSuccessCarriesFlag(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteSuccess(rec, struct {
		types.OK
		OrderID string `json:"order_id"`
	}{OK: types.Ok(), OrderID: "abc"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "abc", body["order_id"])
}

func TestWriteErrorBusinessRuleAnswers200(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for Hardback Epic").
		WithDetails(map[string]any{"shortages": []string{"Hardback Epic"}})
	WriteError(context.Background(), nil, rec, err)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "insufficient stock for Hardback Epic", envelope.Error)
	assert.Equal(t, string(pkgerrors.CodeInsufficientStock), envelope.Code)
	assert.NotNil(t, envelope.Details)
}

func TestWriteErrorStatusByCode(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation is 400", err: pkgerrors.New(pkgerrors.CodeValidation, "bad input"), wantStatus: http.StatusBadRequest},
		{name: "unauthorized is 401", err: pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"), wantStatus: http.StatusUnauthorized},
		{name: "not found is 200", err: pkgerrors.New(pkgerrors.CodeNotFound, "order not found"), wantStatus: http.StatusOK},
		{name: "state conflict is 200", err: pkgerrors.New(pkgerrors.CodeStateConflict, "order is cancelled"), wantStatus: http.StatusOK},
		{name: "untyped error is 500", err: context.DeadlineExceeded, wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(context.Background(), nil, rec, tc.err)
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestWriteErrorHidesInternalMessage(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WriteError(context.Background(), nil, rec, pkgerrors.New(pkgerrors.CodeInternal, "pg password leaked here"))

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "internal server error", envelope.Error)
}
