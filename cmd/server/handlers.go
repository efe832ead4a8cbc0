package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/idhash"
	"pricing-lab/internal/observability"
	"pricing-lab/internal/policy"
	"pricing-lab/internal/storage"
)

// simConfigPatch carries the optional per-request simulation overrides.
// Pointers distinguish "absent, use the default" from an explicit zero.
type simConfigPatch struct {
	Trials        *int   `json:"trials"`
	Seed          *int64 `json:"seed"`
	LastMinuteK   *int   `json:"last_minute_k"`
	ComputeRegret *bool  `json:"compute_regret"`
}

func (p simConfigPatch) apply(cfg domain.SimConfig) domain.SimConfig {
	if p.Trials != nil {
		cfg.Trials = *p.Trials
	}
	if p.Seed != nil {
		cfg.Seed = *p.Seed
	}
	if p.LastMinuteK != nil {
		cfg.LastMinuteK = *p.LastMinuteK
	}
	if p.ComputeRegret != nil {
		cfg.ComputeRegret = *p.ComputeRegret
	}
	return cfg
}

type simulateRequest struct {
	CSV    string         `json:"csv"`
	Config simConfigPatch `json:"config"`
}

type submitRequest struct {
	StudentEmail string         `json:"student_email"`
	StudentName  string         `json:"student_name"`
	Philosophy   string         `json:"philosophy"`
	CSV          string         `json:"csv"`
	Config       simConfigPatch `json:"config"`
}

type submitResponse struct {
	SubmissionID string                   `json:"submission_id"`
	PolicyHash   string                   `json:"policy_hash"`
	CreatedAt    int64                    `json:"created_at"`
	Result       *domain.SimulationResult `json:"result"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	resp := errorResponse{Error: code}
	if err != nil {
		resp.Message = err.Error()
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":            "pricing-lab",
		"version":            serviceVersion,
		"assignment_version": s.assignmentVersion,
		"I":                  domain.DefaultCapacityI,
		"T":                  domain.DefaultPeriodsT,
		"max_trials":         domain.MaxTrials,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	prices := map[string]int64{}
	probabilities := map[string]float64{}
	for _, level := range domain.Levels {
		prices[level.String()] = level.Price()
		probabilities[level.String()] = level.SaleProb()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"I":               domain.DefaultCapacityI,
		"T":               domain.DefaultPeriodsT,
		"prices":          prices,
		"probabilities":   probabilities,
		"trials_default":  domain.DefaultTrials,
		"trials_max":      domain.MaxTrials,
		"seed_default":    domain.DefaultSeed,
		"last_minute_k":   domain.DefaultLastMinuteK,
		"accepted_values": policy.AcceptedValues,
	})
}

func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	dims := domain.Dimensions{CapacityI: domain.DefaultCapacityI, PeriodsT: domain.DefaultPeriodsT}
	w.Header().Set("Content-Type", "text/csv")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(policy.Template(dims)))
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	cfg := req.Config.apply(domain.DefaultSimConfig())
	result := policy.Validate(req.CSV, cfg.Dimensions())
	observability.RecordGridValidation(errorKinds(result))

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	result, validation, err := s.runSimulation(r.Context(), req.CSV, req.Config.apply(domain.DefaultSimConfig()))
	if validation != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validation)
		return
	}
	if err != nil {
		s.writeSimError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.StudentEmail == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("student_email is required"))
		return
	}

	// Submissions are always graded against the benchmark.
	cfg := req.Config.apply(domain.DefaultSimConfig())
	cfg.ComputeRegret = true

	result, validation, err := s.runSimulation(r.Context(), req.CSV, cfg)
	if validation != nil {
		observability.RecordSubmission("invalid")
		writeJSON(w, http.StatusUnprocessableEntity, validation)
		return
	}
	if err != nil {
		observability.RecordSubmission("error")
		s.writeSimError(w, err)
		return
	}

	canonicalCSV := policy.CanonicalCSV(result.Policy)
	policyHash := idhash.ComputePolicyHash(canonicalCSV)
	createdAt := time.Now().UnixMilli()
	submissionID := idhash.ComputeSubmissionID(req.StudentEmail, s.assignmentVersion, policyHash, createdAt)

	aggregatesJSON, err := json.Marshal(result.Aggregates)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	sampleTrialJSON, err := json.Marshal(result.SampleTrial)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}

	sub := &domain.Submission{
		SubmissionID:      submissionID,
		StudentEmail:      req.StudentEmail,
		StudentName:       req.StudentName,
		AssignmentVersion: s.assignmentVersion,
		CapacityI:         cfg.CapacityI,
		PeriodsT:          cfg.PeriodsT,
		Trials:            cfg.Trials,
		Seed:              cfg.Seed,
		LastMinuteK:       cfg.LastMinuteK,
		Philosophy:        req.Philosophy,
		PolicyCSV:         canonicalCSV,
		AggregatesJSON:    string(aggregatesJSON),
		SampleTrialJSON:   string(sampleTrialJSON),
		CreatedAt:         createdAt,
	}

	if err := s.stores.submissionStore.Insert(r.Context(), sub); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordSubmission("duplicate")
			writeError(w, http.StatusConflict, "duplicate_submission", err)
			return
		}
		observability.RecordSubmission("error")
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}
	observability.RecordSubmission("ok")

	s.mu.Lock()
	s.submissionsSeen++
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, submitResponse{
		SubmissionID: submissionID,
		PolicyHash:   policyHash,
		CreatedAt:    createdAt,
		Result:       result,
	})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	var (
		subs []*domain.Submission
		err  error
	)
	if student := r.URL.Query().Get("student"); student != "" {
		subs, err = s.stores.submissionStore.GetByStudent(r.Context(), student)
	} else {
		subs, err = s.stores.submissionStore.GetAll(r.Context())
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}

	type summary struct {
		SubmissionID string `json:"submission_id"`
		StudentEmail string `json:"student_email"`
		StudentName  string `json:"student_name"`
		Trials       int    `json:"trials"`
		Seed         int64  `json:"seed"`
		CreatedAt    int64  `json:"created_at"`
	}

	summaries := make([]summary, 0, len(subs))
	for _, sub := range subs {
		summaries = append(summaries, summary{
			SubmissionID: sub.SubmissionID,
			StudentEmail: sub.StudentEmail,
			StudentName:  sub.StudentName,
			Trials:       sub.Trials,
			Seed:         sub.Seed,
			CreatedAt:    sub.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":       len(summaries),
		"submissions": summaries,
	})
}

func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.stores.submissionStore.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}

	attempts, err := s.stores.submissionStore.CountByStudent(r.Context(), sub.StudentEmail)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "storage_error", err)
		return
	}

	var aggregates json.RawMessage = []byte(sub.AggregatesJSON)
	var sampleTrial json.RawMessage = []byte(sub.SampleTrialJSON)

	writeJSON(w, http.StatusOK, map[string]any{
		"submission_id":      sub.SubmissionID,
		"student_email":      sub.StudentEmail,
		"student_name":       sub.StudentName,
		"assignment_version": sub.AssignmentVersion,
		"I":                  sub.CapacityI,
		"T":                  sub.PeriodsT,
		"trials":             sub.Trials,
		"seed":               sub.Seed,
		"last_minute_k":      sub.LastMinuteK,
		"philosophy":         sub.Philosophy,
		"policy_csv":         sub.PolicyCSV,
		"aggregates":         aggregates,
		"sample_trial":       sampleTrial,
		"attempts":           attempts,
		"created_at":         sub.CreatedAt,
	})
}

// StatusResponse is the JSON response for /status endpoint.
type StatusResponse struct {
	Status          string `json:"status"`
	Uptime          string `json:"uptime"`
	SimulationRuns  int    `json:"simulation_runs"`
	SubmissionsSeen int    `json:"submissions_seen"`
	Workers         int    `json:"workers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).String(),
		SimulationRuns:  s.simulationRuns,
		SubmissionsSeen: s.submissionsSeen,
		Workers:         s.workers,
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// runSimulation validates the grid, runs the Monte Carlo evaluation and
// records the analytics row. A non-nil ValidationResult means the grid was
// rejected; err covers configuration and execution failures.
func (s *Server) runSimulation(ctx context.Context, csv string, cfg domain.SimConfig) (*domain.SimulationResult, *domain.ValidationResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	matrix, validation := policy.Parse(csv, cfg.Dimensions())
	observability.RecordGridValidation(errorKinds(validation))
	if !validation.Valid {
		return nil, &validation, nil
	}

	start := time.Now()
	result, err := s.runner.Run(ctx, matrix, cfg)
	if err != nil {
		observability.RecordSimulation("error", 0, 0)
		return nil, nil, err
	}
	observability.RecordSimulation("ok", cfg.Trials, time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulSimulation.Set(float64(time.Now().Unix()))

	s.mu.Lock()
	s.simulationRuns++
	s.mu.Unlock()

	s.recordRunAggregate(ctx, result)
	return result, nil, nil
}

// recordRunAggregate stores the analytics row. Failures are logged, not
// surfaced: the simulation response never depends on the analytics store.
func (s *Server) recordRunAggregate(ctx context.Context, result *domain.SimulationResult) {
	policyHash := idhash.ComputePolicyHash(policy.CanonicalCSV(result.Policy))
	cfg := result.Config

	agg := &domain.RunAggregate{
		RunID:           idhash.ComputeRunID(policyHash, cfg.Seed, cfg.Trials, cfg.LastMinuteK),
		PolicyHash:      policyHash,
		Seed:            cfg.Seed,
		Trials:          cfg.Trials,
		AvgRevenue:      result.Aggregates.AvgRevenue,
		StdRevenue:      result.Aggregates.StdRevenue,
		FillRate:        result.Aggregates.FillRate,
		AvgPrice:        result.Aggregates.AvgPrice,
		LastMinuteShare: result.Aggregates.LastMinuteShare,
		Regret:          result.Aggregates.Regret,
		SalesLow:        result.Aggregates.PriceMix.Low,
		SalesMed:        result.Aggregates.PriceMix.Med,
		SalesHigh:       result.Aggregates.PriceMix.High,
		CreatedAt:       time.Now().UnixMilli(),
	}

	start := time.Now()
	err := s.stores.runAggregateStore.Insert(ctx, agg)
	observability.RecordDBQuery("clickhouse", "insert_run_aggregate", time.Since(start).Seconds(), err)
	if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		s.logger.Printf("record run aggregate %s: %v", agg.RunID, err)
	}
}

func (s *Server) writeSimError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "invalid_configuration", err)
	case errors.Is(err, domain.ErrDimensionMismatch):
		writeError(w, http.StatusBadRequest, "dimension_mismatch", err)
	default:
		writeError(w, http.StatusInternalServerError, "simulation_failed", err)
	}
}

// errorKinds classifies validation errors for the metrics counter.
func errorKinds(result domain.ValidationResult) []string {
	kinds := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		switch {
		case e.Row == 0 && e.Col == 0:
			kinds = append(kinds, "grid")
		case e.Col == 0:
			kinds = append(kinds, "row")
		default:
			kinds = append(kinds, "cell")
		}
	}
	return kinds
}
