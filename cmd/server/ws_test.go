package main

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/simulate"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return conn
}

func TestSimulateWS_ProgressThenResult(t *testing.T) {
	ts := httptest.NewServer(newTestServer().routes())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	trials := 200
	require.NoError(t, conn.WriteJSON(simulateRequest{
		CSV:    validGrid("MED"),
		Config: simConfigPatch{Trials: &trials},
	}))

	sawProgress := false
	for {
		var frame wsFrame
		require.NoError(t, conn.ReadJSON(&frame))

		switch frame.Type {
		case "progress":
			sawProgress = true
			assert.Equal(t, 200, frame.Total)
			assert.LessOrEqual(t, frame.Completed, frame.Total)
		case "result":
			require.NotNil(t, frame.Result)
			assert.Equal(t, 200, frame.Result.Config.Trials)
			assert.Positive(t, frame.Result.Aggregates.AvgRevenue)
			assert.True(t, sawProgress, "no progress frame arrived before the result")
			return
		default:
			t.Fatalf("unexpected frame type %q", frame.Type)
		}
	}
}

func TestSimulateWS_InvalidGrid(t *testing.T) {
	ts := httptest.NewServer(newTestServer().routes())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(simulateRequest{CSV: "LOW,BANANA\n"}))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "invalid", frame.Type)
	require.NotNil(t, frame.Validation)
	assert.False(t, frame.Validation.Valid)
}

func TestSimulateWS_BadConfig(t *testing.T) {
	ts := httptest.NewServer(newTestServer().routes())
	defer ts.Close()

	conn := dialWS(t, ts)
	defer conn.Close()

	trials := -1
	require.NoError(t, conn.WriteJSON(simulateRequest{
		CSV:    validGrid("LOW"),
		Config: simConfigPatch{Trials: &trials},
	}))

	var frame wsFrame
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "error", frame.Type)
	assert.NotEmpty(t, frame.Message)
}
