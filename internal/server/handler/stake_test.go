package handler

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NJCinnamond/sports-betting-dapp/internal/domain"
)

type stubStakes struct {
	stakeErr   error
	unstakeErr error

	lastFixture     domain.FixtureID
	lastOutcome     domain.Outcome
	lastParticipant common.Address
	lastAmount      *big.Int
}

func (s *stubStakes) Stake(_ context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error {
	s.lastFixture, s.lastOutcome, s.lastParticipant, s.lastAmount = id, outcome, participant, amount
	return s.stakeErr
}

func (s *stubStakes) Unstake(_ context.Context, id domain.FixtureID, outcome domain.Outcome, participant common.Address, amount *big.Int) error {
	s.lastFixture, s.lastOutcome, s.lastParticipant, s.lastAmount = id, outcome, participant, amount
	return s.unstakeErr
}

func (s *stubStakes) StakeSummary(domain.FixtureID, common.Address) domain.StakeVector {
	v := domain.NewStakeVector()
	v.Set(domain.OutcomeHome, big.NewInt(500))
	return v
}

const testAddr = "0x1111111111111111111111111111111111111111"

func stakeReq(t *testing.T, path, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.SetPathValue("id", "f-1")
	return req
}

func TestPlaceStake(t *testing.T) {
	stakes := &stubStakes{}
	h := NewStakeHandler(stakes, discardLogger())

	body := `{"participant":"` + testAddr + `","outcome":"home","amount":"1000000000000000"}`
	rec := httptest.NewRecorder()
	h.PlaceStake(rec, stakeReq(t, "/api/fixtures/f-1/stakes", body))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, domain.FixtureID("f-1"), stakes.lastFixture)
	assert.Equal(t, domain.OutcomeHome, stakes.lastOutcome)
	assert.Equal(t, common.HexToAddress(testAddr), stakes.lastParticipant)
	assert.Equal(t, "1000000000000000", stakes.lastAmount.String())
}

func TestPlaceStake_BadInput(t *testing.T) {
	h := NewStakeHandler(&stubStakes{}, discardLogger())

	cases := []struct {
		name string
		body string
	}{
		{"bad address", `{"participant":"nope","outcome":"home","amount":"100"}`},
		{"bad outcome", `{"participant":"` + testAddr + `","outcome":"tie","amount":"100"}`},
		{"bad amount", `{"participant":"` + testAddr + `","outcome":"home","amount":"ten"}`},
		{"negative amount", `{"participant":"` + testAddr + `","outcome":"home","amount":"-5"}`},
		{"not json", `nope`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.PlaceStake(rec, stakeReq(t, "/api/fixtures/f-1/stakes", tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestPlaceStake_DomainConflicts(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not open", domain.ErrBettingNotOpen, http.StatusConflict},
		{"below entrance fee", domain.ErrBelowEntranceFee, http.StatusBadRequest},
		{"rate limited", domain.ErrRateLimited, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewStakeHandler(&stubStakes{stakeErr: tc.err}, discardLogger())
			body := `{"participant":"` + testAddr + `","outcome":"away","amount":"100"}`
			rec := httptest.NewRecorder()
			h.PlaceStake(rec, stakeReq(t, "/api/fixtures/f-1/stakes", body))
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRemoveStake_StakeTooLow(t *testing.T) {
	h := NewStakeHandler(&stubStakes{unstakeErr: domain.ErrStakeTooLow}, discardLogger())

	body := `{"participant":"` + testAddr + `","outcome":"draw","amount":"100"}`
	rec := httptest.NewRecorder()
	h.RemoveStake(rec, stakeReq(t, "/api/fixtures/f-1/unstakes", body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStakes(t *testing.T) {
	h := NewStakeHandler(&stubStakes{}, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/fixtures/f-1/stakes/"+testAddr, nil)
	req.SetPathValue("id", "f-1")
	req.SetPathValue("participant", testAddr)
	rec := httptest.NewRecorder()
	h.GetStakes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"home":"500"`)
	assert.Contains(t, rec.Body.String(), `"draw":"0"`)
}
