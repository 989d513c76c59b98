package ocpi_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocpi-tariffs/internal/ocpi"
)

const validCdrJSON = `{
  "version": "2.2.1",
  "id": "cdr-1",
  "start_date_time": "2024-06-01T08:00:00Z",
  "end_date_time": "2024-06-01T09:00:00Z",
  "currency": "EUR",
  "charging_periods": [
    {"start_date_time": "2024-06-01T08:00:00Z", "dimensions": [{"type": "ENERGY", "volume": "10.0"}]}
  ]
}`

func TestDecode_Valid(t *testing.T) {
	cdr, err := ocpi.Decode(strings.NewReader(validCdrJSON))
	require.NoError(t, err)
	assert.Equal(t, "cdr-1", cdr.ID)
	assert.Len(t, cdr.ChargingPeriods, 1)
}

func TestDecode_RejectsOldVersion(t *testing.T) {
	body := strings.Replace(validCdrJSON, `"2.2.1"`, `"2.1.1"`, 1)
	_, err := ocpi.Decode(strings.NewReader(body))
	require.Error(t, err)

	var typed *ocpi.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ocpi.InvalidInput, typed.Kind)
}

func TestDecode_RejectsMalformedJSON(t *testing.T) {
	_, err := ocpi.Decode(strings.NewReader("{not json"))
	require.Error(t, err)

	var typed *ocpi.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, ocpi.InvalidInput, typed.Kind)
}

func TestDecode_RejectsMissingCurrency(t *testing.T) {
	body := strings.Replace(validCdrJSON, `"currency": "EUR",`, "", 1)
	_, err := ocpi.Decode(strings.NewReader(body))
	require.Error(t, err)
}
