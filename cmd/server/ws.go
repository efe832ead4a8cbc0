package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"pricing-lab/internal/domain"
	"pricing-lab/internal/observability"
	"pricing-lab/internal/policy"
	"pricing-lab/internal/sim"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Browser clients connect from the course frontend on another origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsFrame is the single message shape of the progress feed. Type is one of
// progress, result, invalid or error.
type wsFrame struct {
	Type string `json:"type"`

	Completed int `json:"completed,omitempty"`
	Total     int `json:"total,omitempty"`

	Result     *domain.SimulationResult `json:"result,omitempty"`
	Validation *domain.ValidationResult `json:"validation,omitempty"`
	Message    string                   `json:"message,omitempty"`
}

// handleSimulateWS runs one simulation per connection: the client sends a
// simulate request as its first message, receives progress frames while the
// trials run, and a final result frame.
func (s *Server) handleSimulateWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	observability.DefaultMetrics.WSConnectionsActive.Inc()
	defer observability.DefaultMetrics.WSConnectionsActive.Dec()

	_, raw, err := conn.ReadMessage()
	if err != nil {
		return
	}

	var req simulateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		conn.WriteJSON(wsFrame{Type: "error", Message: "malformed request: " + err.Error()})
		return
	}

	cfg := req.Config.apply(domain.DefaultSimConfig())
	if err := cfg.Validate(); err != nil {
		conn.WriteJSON(wsFrame{Type: "error", Message: err.Error()})
		return
	}

	matrix, validation := policy.Parse(req.CSV, cfg.Dimensions())
	observability.RecordGridValidation(errorKinds(validation))
	if !validation.Valid {
		conn.WriteJSON(wsFrame{Type: "invalid", Validation: &validation})
		return
	}

	// Progress frames are throttled to ~50 per run and funneled through one
	// writer goroutine; gorilla connections allow a single concurrent writer.
	step := cfg.Trials / 50
	if step < 1 {
		step = 1
	}
	progress := make(chan int, 64)

	runner := sim.NewRunner(sim.Options{
		Workers: s.workers,
		Logger:  s.logger,
		OnProgress: func(completed, total int) {
			if completed%step != 0 && completed != total {
				return
			}
			select {
			case progress <- completed:
			default: // drop rather than stall trial workers
			}
		},
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for completed := range progress {
			frame := wsFrame{Type: "progress", Completed: completed, Total: cfg.Trials}
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
			observability.DefaultMetrics.WSProgressMessages.Inc()
		}
	}()

	start := time.Now()
	result, err := runner.Run(r.Context(), matrix, cfg)
	close(progress)
	<-writerDone

	if err != nil {
		observability.RecordSimulation("error", 0, 0)
		conn.WriteJSON(wsFrame{Type: "error", Message: err.Error()})
		return
	}

	observability.RecordSimulation("ok", cfg.Trials, time.Since(start).Seconds())
	observability.DefaultMetrics.LastSuccessfulSimulation.Set(float64(time.Now().Unix()))

	s.mu.Lock()
	s.simulationRuns++
	s.mu.Unlock()

	s.recordRunAggregate(r.Context(), result)

	conn.WriteJSON(wsFrame{Type: "result", Completed: cfg.Trials, Total: cfg.Trials, Result: result})
}
