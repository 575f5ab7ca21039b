package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/luocfprime/labtasker/pkg/client"
)

func TestHeartbeat_SendsPeriodically(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	hb := NewHeartbeat(sdk, "task-1", 10*time.Millisecond)

	hb.Start(context.Background())
	time.Sleep(55 * time.Millisecond)
	hb.Stop()

	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(3))
}

func TestHeartbeat_StopReturnsAfterStart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	hb := NewHeartbeat(sdk, "task-1", 5*time.Millisecond)
	hb.Start(context.Background())
	hb.Stop()
}

func TestHeartbeat_ToleratesErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sdk := client.New(srv.URL, "q", "p")
	hb := NewHeartbeat(sdk, "task-1", 5*time.Millisecond)

	hb.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	hb.Stop()
}
