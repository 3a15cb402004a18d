package httputil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/pkg/logger"
)

// bodyRecorder captures every request body the server receives
type bodyRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (r *bodyRecorder) record(body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bodies = append(r.bodies, body)
}

func (r *bodyRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.bodies...)
}

func TestPostJSON_RetryResendsFullBody(t *testing.T) {
	rec := &bodyRecorder{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		rec.record(string(data))
		if len(rec.all()) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(logger.NewNop()).WithRetry(2, time.Millisecond)

	resp, err := client.PostJSON(context.Background(), server.URL,
		map[string]string{"code": "005930"}, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	bodies := rec.all()
	require.Len(t, bodies, 2)
	assert.NotEmpty(t, bodies[0])
	// 재시도는 원본과 동일한 전체 본문을 다시 보내야 한다
	assert.Equal(t, bodies[0], bodies[1])
}

func TestDo_NonReplayableBodySkipsRetry(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(logger.NewNop()).WithRetry(2, time.Millisecond)

	// io.Pipe 기반 바디는 GetBody가 없어 되감을 수 없다
	pr, pw := io.Pipe()
	go func() {
		io.Copy(pw, strings.NewReader(`{"code":"005930"}`))
		pw.Close()
	}()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL, pr)
	require.NoError(t, err)
	require.Nil(t, req.GetBody)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1, calls, "되감을 수 없는 본문은 재전송하지 않는다")
}
