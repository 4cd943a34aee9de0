package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// RemoteSink forwards audit events to an external log collector as JSON.
// Deliveries are detached from the caller and guarded by a circuit breaker
// so a broken collector can never slow down or break payment processing.
type RemoteSink struct {
	url        string
	httpClient *http.Client
	breaker    *Breaker
	logger     logrus.FieldLogger
}

// remoteEvent is the JSON body posted to the collector.
type remoteEvent struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Service   string         `json:"service"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// NewRemoteSink creates a sink posting to the given collector URL.
func NewRemoteSink(url string, breaker *Breaker) *RemoteSink {
	return &RemoteSink{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		breaker: breaker,
		logger:  logrus.StandardLogger().WithField("component", "audit-remote"),
	}
}

// Record implements Sink. The HTTP round trip runs in its own goroutine and
// its outcome only feeds the breaker.
func (s *RemoteSink) Record(event string, fields map[string]any) {
	if !s.breaker.Allow() {
		return
	}

	payload := remoteEvent{
		Event:     event,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Service:   "tuwebai-payments",
		Fields:    fields,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to encode audit event")
		return
	}

	go s.post(body)
}

func (s *RemoteSink) post(body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), s.httpClient.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		s.breaker.Failure()
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.breaker.Failure()
		s.logger.WithError(err).Warn("Remote audit delivery failed")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.breaker.Success()
		return
	}
	s.breaker.Failure()
	s.logger.WithField("status", resp.StatusCode).Warn("Remote audit collector rejected event")
}
