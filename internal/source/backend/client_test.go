package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/citas-notify/internal/source"
)

func TestClient_ListByUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/notifications/user/5", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id_notificacion":1,"titulo":"Cita","leida":false,"fecha_creacion":"2024-05-01T10:00:00"},
			{"id_notificacion":2,"titulo":"Recordatorio","leida":true,"fecha_creacion":"2024-04-30T10:00:00"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "tok")
	items, err := c.ListByUser(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.True(t, items[1].Read)
}

func TestClient_ListByUserNullBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`null`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL, "").ListByUser(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestClient_NoTokenSendsNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, NewClient(srv.URL, "").Delete(context.Background(), 4))
}

func TestClient_Commands(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Method+" "+r.URL.Path)
		if r.Method == http.MethodPatch {
			w.Write([]byte(`{"id_notificacion":3,"titulo":"Cita","leida":true,"fecha_creacion":"2024-05-01T10:00:00"}`))
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok")
	ctx := context.Background()

	updated, err := c.MarkRead(ctx, 3)
	require.NoError(t, err)
	assert.True(t, updated.Read)

	require.NoError(t, c.Delete(ctx, 3))
	require.NoError(t, c.ClearUser(ctx, 5))

	assert.Equal(t, []string{
		"PATCH /notifications/3/read",
		"DELETE /notifications/3",
		"DELETE /notifications/user/5",
	}, got)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantAuth bool
		wantBody string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"detail":"Token inválido"}`, true, ""},
		{"forbidden", http.StatusForbidden, ``, true, ""},
		{"not found detail", http.StatusNotFound, `{"detail":"Notificación no encontrada"}`, false, "Notificación no encontrada"},
		{"server error field", http.StatusInternalServerError, `{"error":"db down"}`, false, "db down"},
		{"plain body", http.StatusBadGateway, "upstream\n", false, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "tok").MarkRead(context.Background(), 1)
			require.Error(t, err)
			assert.Equal(t, tt.wantAuth, source.IsAuthError(err))

			if !tt.wantAuth {
				var statusErr *source.StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
				assert.Equal(t, tt.wantBody, statusErr.Body)
			}
		})
	}
}

func TestClient_RateLimitWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "tok").ListByUser(context.Background(), 5)
	require.Error(t, err)

	var statusErr *source.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_RateLimitRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", WithMaxRetries(2), WithTimeout(5*time.Second))
	items, err := c.ListByUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_BindToken(t *testing.T) {
	var auth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth.Store(r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	base := NewClient(srv.URL, "")
	bound := base.BindToken("fresh")

	_, err := bound.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Bearer fresh", auth.Load())

	_, err = base.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "", auth.Load())
}
