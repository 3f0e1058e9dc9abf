package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

var sample = []model.Reservation{{
	BookingID:     "BK-20250101083000-0a1b2c3d",
	VehicleID:     "VH-1",
	Owner:         model.Owner{Name: "Kiran"},
	SlotID:        "SC001-SLOT-1",
	CenterID:      "SC001",
	CenterName:    "Pulse Service Hub - North",
	SlotTime:      time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	ServiceType:   "oil_change",
	EstimatedCost: "₹1,200",
	CostAmount:    1200,
	Status:        model.StatusConfirmed,
	CreatedAt:     time.Date(2025, 1, 1, 8, 30, 0, 0, time.UTC),
}}

func TestWriteBookingsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookingsCSV(&buf, sample))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "booking_id", rows[0][0])
	assert.Equal(t, "SC001-SLOT-1", rows[1][3])
	assert.Equal(t, "2025-01-01T09:00:00Z", rows[1][6])
	assert.Equal(t, "₹1,200", rows[1][8])
	assert.Equal(t, "1200", rows[1][9])
}

func TestBookings_JSONEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Bookings(&buf, FormatJSON, nil))
	assert.Equal(t, "[]\n", buf.String())

	buf.Reset()
	require.NoError(t, Bookings(&buf, "", sample))
	var out []model.Reservation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "Kiran", out[0].Owner.Name)

	assert.Error(t, Bookings(&buf, FormatChart, sample))
}

func TestWriteSlotsCSV(t *testing.T) {
	var buf bytes.Buffer
	slots := []model.Slot{{ID: "SC002-SLOT-2", CenterID: "SC002", CenterName: "South", Time: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)}}
	require.NoError(t, WriteSlotsCSV(&buf, slots))
	assert.Equal(t, "slot_id,center_id,center_name,slot_time\nSC002-SLOT-2,SC002,South,2025-01-01T10:00:00\n", buf.String())
}

func TestWriteUtilizationChart(t *testing.T) {
	var buf bytes.Buffer
	err := WriteUtilizationChart(&buf, []model.CenterUtilization{
		{CenterID: "SC001", CenterName: "North", Total: 47, Taken: 3},
		{CenterID: "SC002", Total: 46},
	})
	require.NoError(t, err)
	html := buf.String()
	assert.True(t, strings.Contains(html, "<html"), "expected html document")
	assert.Contains(t, html, "Slot utilisation")
	assert.Contains(t, html, "North")
	assert.Contains(t, html, "SC002")
}
