package remote

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soda/internal/core"
	"soda/internal/repository"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/dashboard/", 5*time.Second)
}

func TestListAllDecodesDocuments(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/dashboard/resumenes", r.URL.Path)
		_, _ = io.WriteString(w, `[
			{"_id":"a","fecha":"2024-03-04T00:00:00.000Z","ventas":1000,"municipalidad":100,"facturas":200,"mesada":50,"salarios":150},
			{"_id":"b","fecha":"2024-03-10","ventas":"500","totalGastos":120,"gananciaFinal":999},
			{"_id":"c","ventas":10},
			{"_id":"d","fecha":"2024-03-05","ventas":"","salarios":"abc","municipalidad":" 25 ","facturas":true,"totalGastos":"n/a","gananciaFinal":null}
		]`)
	})

	got, err := c.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "2024-03-04", got[0].Date.String())
	assert.True(t, got[0].TotalExpenses.Equal(decimal.NewFromInt(500)))
	assert.True(t, got[0].FinalProfit.Equal(decimal.NewFromInt(500)))

	assert.True(t, got[1].TotalExpenses.Equal(decimal.NewFromInt(120)))
	assert.True(t, got[1].FinalProfit.Equal(decimal.NewFromInt(999)))
	assert.True(t, got[1].MunicipalTax.IsZero())

	assert.True(t, got[2].Date.IsZero())

	assert.Equal(t, "d", got[3].ID)
	assert.True(t, got[3].Sales.IsZero())
	assert.True(t, got[3].Salaries.IsZero())
	assert.True(t, got[3].Invoices.IsZero())
	assert.True(t, got[3].MunicipalTax.Equal(decimal.NewFromInt(25)))
	assert.True(t, got[3].TotalExpenses.Equal(decimal.NewFromInt(25)))
	assert.True(t, got[3].FinalProfit.Equal(decimal.NewFromInt(-25)))
}

func TestCreateSendsFieldsAndReturnsID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/dashboard/guardar", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2024-03-04", body["fecha"])
		assert.Equal(t, float64(5500), body["ventas"])
		assert.Equal(t, 12.5, body["salarios"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"_id":"66f0c1","fecha":"2024-03-04"}`)
	})

	id, err := c.Create(context.Background(), core.Fields{
		Date:     core.NewDate(2024, 3, 4),
		Sales:    decimal.NewFromInt(5500),
		Salaries: decimal.RequireFromString("12.5"),
	})
	require.NoError(t, err)
	assert.Equal(t, "66f0c1", id)
}

func TestUpdateAndDeletePaths(t *testing.T) {
	var calls []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.EscapedPath())
		_, _ = io.WriteString(w, `{"ok":true}`)
	})

	require.NoError(t, c.Update(context.Background(), "a/b", core.Fields{Date: core.NewDate(2024, 3, 4)}))
	require.NoError(t, c.Delete(context.Background(), "abc"))
	assert.Equal(t, []string{"PUT /api/dashboard/a%2Fb", "DELETE /api/dashboard/abc"}, calls)
}

func TestErrorsCarryStatusAndMessage(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
	}{
		{"json message", http.StatusInternalServerError, `{"message":"Mongo caído"}`, "Mongo caído"},
		{"json error field", http.StatusBadRequest, `{"error":"fecha requerida"}`, "fecha requerida"},
		{"plain body", http.StatusBadGateway, "upstream timeout", "upstream timeout"},
		{"empty body", http.StatusServiceUnavailable, "", "Service Unavailable"},
		{"json without message", http.StatusInternalServerError, `{"code":1}`, "Internal Server Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.ListAll(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.status, repository.Status(err))
			assert.Equal(t, tt.message, repository.Message(err, "fallback"))
		})
	}
}

func TestNotFoundIsRecognised(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Resumen no encontrado"}`, http.StatusNotFound)
	})
	err := c.Delete(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Resumen no encontrado", repository.Message(err, ""))
}

func TestNetworkErrorHasNoStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(srv.URL, time.Second)

	_, err := c.ListAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, 0, repository.Status(err))
	assert.Equal(t, "Network Error", repository.Message(err, "fallback"))
}

func TestMalformedListIsRepositoryError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"not":"a list"}`)
	})
	_, err := c.ListAll(context.Background())
	var rerr *repository.Error
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, repository.OpList, rerr.Op)
}
