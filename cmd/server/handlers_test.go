package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/sim"
	"pricing-lab/internal/storage/memory"
)

func newTestServer() *Server {
	return &Server{
		assignmentVersion: "v1",
		runner:            sim.NewRunner(sim.Options{Workers: 2}),
		workers:           2,
		stores: &allStores{
			submissionStore:   memory.NewSubmissionStore(),
			runAggregateStore: memory.NewRunAggregateStore(),
		},
		logger:  log.New(io.Discard, "", 0),
		started: time.Now(),
	}
}

// validGrid builds raw grid text with every cell set to the same value.
func validGrid(value string) string {
	var sb strings.Builder
	for i := 0; i < domain.DefaultCapacityI; i++ {
		cells := make([]string, domain.DefaultPeriodsT)
		for j := range cells {
			cells[j] = value
		}
		sb.WriteString(strings.Join(cells, ","))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func getPath(handler http.Handler, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandleRoot(t *testing.T) {
	h := newTestServer().routes()
	rec := getPath(h, "/")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "pricing-lab", body["service"])
	assert.EqualValues(t, 7, body["I"])
	assert.EqualValues(t, 15, body["T"])
}

func TestHandleConfig(t *testing.T) {
	h := newTestServer().routes()
	rec := getPath(h, "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Prices        map[string]int64   `json:"prices"`
		Probabilities map[string]float64 `json:"probabilities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(30000), body.Prices["LOW"])
	assert.Equal(t, int64(50000), body.Prices["HIGH"])
	assert.InDelta(t, 0.8, body.Probabilities["MED"], 1e-9)
}

func TestHandleTemplate_RoundTrips(t *testing.T) {
	h := newTestServer().routes()
	rec := getPath(h, "/api/template")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	// The served template must pass the service's own validator.
	validate := postJSON(t, h, "/api/validate", simulateRequest{CSV: rec.Body.String()})
	require.Equal(t, http.StatusOK, validate.Code)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(validate.Body.Bytes(), &result))
	assert.True(t, result.Valid, "errors: %v", result.Errors)
}

func TestHandleValidate_CollectsErrors(t *testing.T) {
	h := newTestServer().routes()

	bad := strings.Replace(validGrid("LOW"), "LOW", "BANANA", 1)
	rec := postJSON(t, h, "/api/validate", simulateRequest{CSV: bad})
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "BANANA", result.Errors[0].Value)
}

func TestHandleSimulate_Deterministic(t *testing.T) {
	h := newTestServer().routes()
	req := simulateRequest{CSV: validGrid("MED")}

	first := postJSON(t, h, "/api/simulate", req)
	require.Equal(t, http.StatusOK, first.Code)
	second := postJSON(t, h, "/api/simulate", req)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b domain.SimulationResult
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Aggregates, b.Aggregates)
	assert.Equal(t, domain.DefaultTrials, a.Config.Trials)
	assert.Equal(t, int64(domain.DefaultSeed), a.Config.Seed)
}

func TestHandleSimulate_ConfigOverrides(t *testing.T) {
	h := newTestServer().routes()
	trials := 100
	seed := int64(7)
	regret := true
	req := simulateRequest{
		CSV:    validGrid("LOW"),
		Config: simConfigPatch{Trials: &trials, Seed: &seed, ComputeRegret: &regret},
	}

	rec := postJSON(t, h, "/api/simulate", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.SimulationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 100, result.Config.Trials)
	assert.Equal(t, int64(7), result.Config.Seed)
	assert.NotNil(t, result.Aggregates.Regret)
}

func TestHandleSimulate_InvalidGrid(t *testing.T) {
	h := newTestServer().routes()
	rec := postJSON(t, h, "/api/simulate", simulateRequest{CSV: "LOW,LOW\n"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var result domain.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
}

func TestHandleSimulate_BadConfig(t *testing.T) {
	h := newTestServer().routes()
	trials := domain.MaxTrials + 1
	rec := postJSON(t, h, "/api/simulate", simulateRequest{
		CSV:    validGrid("LOW"),
		Config: simConfigPatch{Trials: &trials},
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "invalid_configuration", resp.Error)
}

func TestHandleSubmit_PersistsAndFetches(t *testing.T) {
	server := newTestServer()
	h := server.routes()

	rec := postJSON(t, h, "/api/submit", submitRequest{
		StudentEmail: "student@example.edu",
		StudentName:  "Ada",
		Philosophy:   "price high early",
		CSV:          validGrid("HIGH"),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp submitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.SubmissionID)
	require.NotNil(t, resp.Result)
	assert.NotNil(t, resp.Result.Aggregates.Regret, "submissions are graded with regret")

	got := getPath(h, "/api/submissions/"+resp.SubmissionID)
	require.Equal(t, http.StatusOK, got.Code)

	var detail map[string]any
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &detail))
	assert.Equal(t, "student@example.edu", detail["student_email"])
	assert.Equal(t, "price high early", detail["philosophy"])
	assert.EqualValues(t, 1, detail["attempts"])

	list := getPath(h, "/api/submissions?student=student@example.edu")
	require.Equal(t, http.StatusOK, list.Code)
	var listing struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &listing))
	assert.Equal(t, 1, listing.Count)
}

func TestHandleSubmit_RequiresEmail(t *testing.T) {
	h := newTestServer().routes()
	rec := postJSON(t, h, "/api/submit", submitRequest{CSV: validGrid("LOW")})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetSubmission_NotFound(t *testing.T) {
	h := newTestServer().routes()
	rec := getPath(h, "/api/submissions/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSimulate_RecordsRunAggregate(t *testing.T) {
	server := newTestServer()
	h := server.routes()

	rec := postJSON(t, h, "/api/simulate", simulateRequest{CSV: validGrid("MED")})
	require.Equal(t, http.StatusOK, rec.Code)

	rows, err := server.stores.runAggregateStore.GetAll(t.Context())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(domain.DefaultSeed), rows[0].Seed)
	assert.Equal(t, domain.DefaultTrials, rows[0].Trials)
	assert.Positive(t, rows[0].AvgRevenue)
}

func TestHandleStatus(t *testing.T) {
	h := newTestServer().routes()
	rec := getPath(h, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
}
