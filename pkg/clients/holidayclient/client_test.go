package holidayclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkowalski/staffrota/internal/config"
)

func TestGetHolidays_RulesOnly(t *testing.T) {
	client, err := New(&config.Config{
		HolidayAPIBaseURL: "https://date.nager.at",
		HolidayRules:      []string{"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=24"},
	})
	require.NoError(t, err)

	holidays, err := client.GetHolidays(context.Background(),
		time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.True(t, holidays["2024-12-24"])
	assert.Len(t, holidays, 1)
}

func TestGetHolidays_FetchesAndCachesAPIYears(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"date":"2024-01-01","localName":"Neujahr","name":"New Year's Day"}]`))
	}))
	defer server.Close()

	client, err := New(&config.Config{
		HolidayAPIBaseURL: server.URL,
		HolidayCountry:    "DE",
	})
	require.NoError(t, err)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	holidays, err := client.GetHolidays(context.Background(), from, to)
	require.NoError(t, err)
	assert.True(t, holidays["2024-01-01"])

	// Second lookup for the same year hits the cache
	_, err = client.GetHolidays(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetHolidays_APIFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New(&config.Config{
		HolidayAPIBaseURL: server.URL,
		HolidayCountry:    "DE",
	})
	require.NoError(t, err)

	_, err = client.GetHolidays(context.Background(),
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestGetHolidays_DatesOutsideRangeDropped(t *testing.T) {
	client, err := New(&config.Config{
		HolidayAPIBaseURL: "https://date.nager.at",
		HolidayRules:      []string{"FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=24"},
	})
	require.NoError(t, err)

	holidays, err := client.GetHolidays(context.Background(),
		time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	assert.Empty(t, holidays)
}

func TestNew_RejectsInvalidRule(t *testing.T) {
	_, err := New(&config.Config{
		HolidayAPIBaseURL: "https://date.nager.at",
		HolidayRules:      []string{"FREQ=BOGUS"},
	})
	assert.Error(t, err)
}
