package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

type stubDeliveries struct {
	kickoffID domain.FixtureID
	kickoff   time.Time
	resultID  domain.FixtureID
	signal    domain.ResultSignal
	resultErr error
}

func (s *stubDeliveries) OnKickoffTimeDelivered(_ context.Context, id domain.FixtureID, kickoff time.Time) {
	s.kickoffID = id
	s.kickoff = kickoff
}

func (s *stubDeliveries) OnResultDelivered(_ context.Context, id domain.FixtureID, signal domain.ResultSignal) error {
	s.resultID = id
	s.signal = signal
	return s.resultErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandleKickoff(t *testing.T) {
	deliveries := &stubDeliveries{}
	h := NewOracleHandler(deliveries, "s3cret", discardLogger())

	body := `{"request_id":"r-1","fixture_id":"f-100","kickoff_time":2000007000}`
	req := httptest.NewRequest(http.MethodPost, "/api/oracle/kickoff", strings.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "s3cret")
	rec := httptest.NewRecorder()

	h.HandleKickoff(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.FixtureID("f-100"), deliveries.kickoffID)
	assert.Equal(t, int64(2000007000), deliveries.kickoff.Unix())
}

func TestHandleKickoff_BadSecret(t *testing.T) {
	deliveries := &stubDeliveries{}
	h := NewOracleHandler(deliveries, "s3cret", discardLogger())

	body := `{"fixture_id":"f-100","kickoff_time":2000007000}`
	req := httptest.NewRequest(http.MethodPost, "/api/oracle/kickoff", strings.NewReader(body))
	req.Header.Set("X-Webhook-Secret", "wrong")
	rec := httptest.NewRecorder()

	h.HandleKickoff(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, deliveries.kickoffID)
}

func TestHandleKickoff_InvalidBody(t *testing.T) {
	h := NewOracleHandler(&stubDeliveries{}, "", discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"missing fixture", `{"kickoff_time":2000007000}`},
		{"zero kickoff", `{"fixture_id":"f-1","kickoff_time":0}`},
		{"not json", `not-json`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/oracle/kickoff", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.HandleKickoff(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleResult_SignalEncodings(t *testing.T) {
	cases := []struct {
		name string
		body string
		want domain.ResultSignal
	}{
		{"numeric", `{"fixture_id":"f-1","result":1}`, domain.NumericSignal(1)},
		{"quoted numeric", `{"fixture_id":"f-1","result":"3"}`, domain.NumericSignal(3)},
		{"text", `{"fixture_id":"f-1","result":"HOME"}`, domain.TextSignal("HOME")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			deliveries := &stubDeliveries{}
			h := NewOracleHandler(deliveries, "", discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/api/oracle/result", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.HandleResult(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, domain.FixtureID("f-1"), deliveries.resultID)
			assert.Equal(t, tc.want, deliveries.signal)
		})
	}
}

func TestHandleResult_UnknownSignal(t *testing.T) {
	deliveries := &stubDeliveries{
		resultErr: &domain.UnknownResultError{
			FixtureID: "f-1",
			Signal:    domain.TextSignal("postponed"),
		},
	}
	h := NewOracleHandler(deliveries, "", discardLogger())

	body := `{"fixture_id":"f-1","result":"postponed"}`
	req := httptest.NewRequest(http.MethodPost, "/api/oracle/result", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleResult(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown fixture result")
}

func TestHandleResult_WrongState(t *testing.T) {
	deliveries := &stubDeliveries{resultErr: domain.ErrNotFulfilling}
	h := NewOracleHandler(deliveries, "", discardLogger())

	body := `{"fixture_id":"f-1","result":1}`
	req := httptest.NewRequest(http.MethodPost, "/api/oracle/result", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleResult(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestHandleResult_MissingResult(t *testing.T) {
	h := NewOracleHandler(&stubDeliveries{}, "", discardLogger())

	body := `{"fixture_id":"f-1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/oracle/result", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleResult(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
