package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agilewatch/agilewatch/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCheapestWindow(t *testing.T) {
	srv := testServer(seededRepo(t, daySlots(t, "2024-06-15", 20, 18, 5, 4, 6, 22)))
	dayStart := time.Date(2024, 6, 15, 0, 0, 0, 0, types.London)

	t.Run("Finds Cheapest Hour", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?minutes=60&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res windowResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, "2024-06-15", res.Date)
		assert.True(t, res.Window.Start.Equal(dayStart.Add(time.Hour)))
		assert.Equal(t, 2, res.Window.SlotCount)
		assert.Equal(t, 9.0, res.Window.TotalPence)
		assert.Equal(t, 4.5, res.Window.AveragePence)
	})

	t.Run("Clock Range Filter", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?minutes=30&date=2024-06-15&from=01:00&to=02:30", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res windowResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.True(t, res.Window.Start.Equal(dayStart.Add(90*time.Minute)))
		assert.Equal(t, 4.0, res.Window.TotalPence)
	})

	t.Run("Window Longer Than Data Returns 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?minutes=240&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
		var errResp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
		assert.Contains(t, errResp.Error, "no 240 minute window")
	})

	t.Run("Misaligned Minutes Returns 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?minutes=45&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	})

	t.Run("Invalid Minutes Returns 400", func(t *testing.T) {
		for _, q := range []string{"minutes=0", "minutes=-30", "minutes=soon"} {
			req := httptest.NewRequest("GET", "/api/windows/cheapest?date=2024-06-15&"+q, nil)
			w := httptest.NewRecorder()

			srv.handleCheapestWindow(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode, q)
		}
	})

	t.Run("Invalid Clock Returns 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?date=2024-06-15&from=1pm", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Unknown Date Returns 404", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/cheapest?date=2031-01-01", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestWindow(w, req)

		assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
	})
}

func TestHandleMostExpensiveWindow(t *testing.T) {
	srv := testServer(seededRepo(t, daySlots(t, "2024-06-15", 20, 18, 5, 4, 6, 22)))
	dayStart := time.Date(2024, 6, 15, 0, 0, 0, 0, types.London)

	req := httptest.NewRequest("GET", "/api/windows/expensive?minutes=60&date=2024-06-15", nil)
	w := httptest.NewRecorder()

	srv.handleMostExpensiveWindow(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res windowResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.Window.Start.Equal(dayStart))
	assert.Equal(t, 38.0, res.Window.TotalPence)
}

func TestHandleChargeWindow(t *testing.T) {
	srv := testServer(seededRepo(t, daySlots(t, "2024-06-15", 20, 18, 5, 4, 6, 5, 22, 25)))
	dayStart := time.Date(2024, 6, 15, 0, 0, 0, 0, types.London)

	t.Run("Plans Cheapest Charge", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/charge?kwh=6&rate=3&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleChargeWindow(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res chargePlanResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 4, res.Plan.RequiredSlots)
		assert.Equal(t, 6.0, res.Plan.TotalKWH)
		assert.True(t, res.Plan.Window.Start.Equal(dayStart.Add(time.Hour)))
		assert.Equal(t, 5.0, res.Plan.AverageRatePence)
		assert.Equal(t, 30.0, res.Plan.TotalCostPence)
	})

	t.Run("Missing KWH Returns 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/charge?date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleChargeWindow(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
		var errResp struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&errResp))
		assert.Contains(t, errResp.Error, "kwh is required")
	})

	t.Run("Non-Positive KWH Returns 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/charge?kwh=-2&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleChargeWindow(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Clamps To Available Slots", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/windows/charge?kwh=30&rate=3&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleChargeWindow(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res chargePlanResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		// only 8 slots exist, so the plan covers the whole day
		assert.Equal(t, 8, res.Plan.RequiredSlots)
		assert.Equal(t, 12.0, res.Plan.TotalKWH)
	})
}

func TestHandleCheapestSlots(t *testing.T) {
	srv := testServer(seededRepo(t, daySlots(t, "2024-06-15", 20, 5, 30, 5, 1, 25)))
	dayStart := time.Date(2024, 6, 15, 0, 0, 0, 0, types.London)

	t.Run("Picks N Cheapest In Time Order", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/slots/cheapest?count=3&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestSlots(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res slotsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 3, res.Count)
		require.Len(t, res.Slots, 3)
		assert.Equal(t, 5.0, res.Slots[0].PencePerKWH)
		assert.Equal(t, 5.0, res.Slots[1].PencePerKWH)
		assert.Equal(t, 1.0, res.Slots[2].PencePerKWH)
		assert.True(t, res.Slots[0].ValidFrom.Before(res.Slots[1].ValidFrom))
		assert.True(t, res.Slots[1].ValidFrom.Before(res.Slots[2].ValidFrom))
	})

	t.Run("Consecutive Run", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/slots/cheapest?count=2&consecutive=true&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestSlots(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res windowResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.True(t, res.Window.Start.Equal(dayStart.Add(90*time.Minute)))
		assert.Equal(t, 6.0, res.Window.TotalPence)
	})

	t.Run("Count Larger Than Day Clamps", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/slots/cheapest?count=20&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestSlots(w, req)

		resp := w.Result()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var res slotsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		assert.Equal(t, 6, res.Count)
	})

	t.Run("Invalid Consecutive Returns 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/slots/cheapest?consecutive=maybe&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestSlots(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})

	t.Run("Invalid Count Returns 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/slots/cheapest?count=0&date=2024-06-15", nil)
		w := httptest.NewRecorder()

		srv.handleCheapestSlots(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Result().StatusCode)
	})
}

func TestHandleMostExpensiveSlots(t *testing.T) {
	srv := testServer(seededRepo(t, daySlots(t, "2024-06-15", 20, 5, 30, 5, 1, 25)))

	req := httptest.NewRequest("GET", "/api/slots/expensive?count=2&date=2024-06-15", nil)
	w := httptest.NewRecorder()

	srv.handleMostExpensiveSlots(w, req)

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res slotsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	require.Len(t, res.Slots, 2)
	assert.Equal(t, 30.0, res.Slots[0].PencePerKWH)
	assert.Equal(t, 25.0, res.Slots[1].PencePerKWH)
}
