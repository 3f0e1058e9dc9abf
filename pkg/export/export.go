// Package export writes reservations, available slots and center
// utilisation in exchange formats (JSON, CSV) and as an HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// Formats accepted by Bookings.
const (
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatChart = "chart"
)

// WriteBookingsJSON writes the reservations to w as an indented JSON array.
func WriteBookingsJSON(w io.Writer, rs []model.Reservation) error {
	if rs == nil {
		rs = []model.Reservation{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rs)
}

// WriteBookingsCSV writes one row per reservation with a header line.
func WriteBookingsCSV(w io.Writer, rs []model.Reservation) error {
	cw := csv.NewWriter(w)
	header := []string{"booking_id", "vehicle_id", "owner", "slot_id", "center_id", "center_name",
		"slot_time", "service_type", "estimated_cost", "estimated_cost_amount", "status", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rs {
		rec := []string{
			r.BookingID,
			r.VehicleID,
			r.Owner.Name,
			r.SlotID,
			r.CenterID,
			r.CenterName,
			r.SlotTime.Format(time.RFC3339),
			r.ServiceType,
			r.EstimatedCost,
			strconv.FormatFloat(r.CostAmount, 'f', -1, 64),
			string(r.Status),
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSlotsJSON writes the slots to w as a JSON array.
func WriteSlotsJSON(w io.Writer, slots []model.Slot) error {
	if slots == nil {
		slots = []model.Slot{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(slots)
}

// WriteSlotsCSV writes one row per slot with a header line.
func WriteSlotsCSV(w io.Writer, slots []model.Slot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"slot_id", "center_id", "center_name", "slot_time"}); err != nil {
		return err
	}
	for _, s := range slots {
		if err := cw.Write([]string{s.ID, s.CenterID, s.CenterName, s.Time.Format(model.DateLayout)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteUtilizationChart renders a bar chart of taken and free slots per
// center as a standalone HTML page.
func WriteUtilizationChart(w io.Writer, us []model.CenterUtilization) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Slot utilisation", Subtitle: "current booking window"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Service center"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Slots"}),
	)
	var (
		xAxis []string
		taken []opts.BarData
		free  []opts.BarData
	)
	for _, u := range us {
		label := u.CenterID
		if u.CenterName != "" {
			label = u.CenterName
		}
		xAxis = append(xAxis, label)
		taken = append(taken, opts.BarData{Value: u.Taken})
		free = append(free, opts.BarData{Value: u.Available()})
	}
	bar.SetXAxis(xAxis).
		AddSeries("Booked", taken).
		AddSeries("Available", free)
	if err := bar.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %v", err)
	}
	return nil
}

// Bookings writes rs in the requested format. The chart format needs the
// utilisation figures instead and is rejected here.
func Bookings(w io.Writer, format string, rs []model.Reservation) error {
	switch format {
	case "", FormatJSON:
		return WriteBookingsJSON(w, rs)
	case FormatCSV:
		return WriteBookingsCSV(w, rs)
	default:
		return fmt.Errorf("unsupported bookings format %q", format)
	}
}
