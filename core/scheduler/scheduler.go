package scheduler

import (
	"context"
	"errors"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/sambhavthakkar/PulseDrive/core/events"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/logger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// ReasonNoSlots is reported when no candidate slot is left for a request.
const ReasonNoSlots = "no_available_slots"

// Reservations is the part of the ledger the scheduler needs.
type Reservations interface {
	FindAvailableSlots(ctx context.Context, q ledger.Query) ([]model.Slot, error)
	ConfirmBooking(ctx context.Context, req ledger.BookingRequest) (model.Reservation, error)
}

// Unassigned records a request that did not get a slot.
type Unassigned struct {
	Request model.MaintenanceRequest `json:"request"`
	Reason  string                   `json:"reason"`
}

// Summary aggregates a run.
type Summary struct {
	Requests      int     `json:"requests"`
	Assigned      int     `json:"assigned"`
	Unassigned    int     `json:"unassigned"`
	Retries       int     `json:"retries"`
	MeanLeadHours float64 `json:"mean_lead_hours"`
	MaxLeadHours  float64 `json:"max_lead_hours"`
}

// Result is the outcome of a batch. Assignments keep input order.
type Result struct {
	Assignments []model.Reservation `json:"assignments"`
	Unassigned  []Unassigned        `json:"unassigned"`
	Summary     Summary             `json:"summary"`
}

// Scheduler runs batches against a reservation ledger.
type Scheduler struct {
	Ledger Reservations
	// Query bounds the candidate search for every request.
	Query ledger.Query
	Clock ledger.Clock
	Log   logger.Logger
	Bus   ledger.Publisher
}

// New creates a scheduler with default clock and logger.
func New(l Reservations) *Scheduler {
	return &Scheduler{Ledger: l, Clock: ledger.SystemClock{}, Log: logger.NopLogger{}}
}

// Schedule processes the requests sequentially in input order. A request
// that cannot be placed is reported in Result.Unassigned and never stops the
// batch; only context cancellation does, in which case the partial result is
// returned with the context error.
func (s *Scheduler) Schedule(ctx context.Context, reqs []model.MaintenanceRequest) (Result, error) {
	start := time.Now()
	res := Result{Assignments: []model.Reservation{}, Unassigned: []Unassigned{}}
	var err error
	for _, req := range reqs {
		if err = ctx.Err(); err != nil {
			break
		}
		booking, reason, retries := s.place(ctx, req)
		res.Summary.Retries += retries
		if reason != "" {
			if err = ctx.Err(); err != nil {
				break
			}
			s.log().Warnf("vehicle %s left unassigned: %s", req.VehicleID, reason)
			res.Unassigned = append(res.Unassigned, Unassigned{Request: req, Reason: reason})
			continue
		}
		res.Assignments = append(res.Assignments, booking)
	}
	res.Summary = s.summarize(reqs, res)
	if s.Bus != nil {
		s.Bus.Publish(events.BatchCompleted{
			Requests:      res.Summary.Requests,
			Assigned:      res.Summary.Assigned,
			Unassigned:    res.Summary.Unassigned,
			Retries:       res.Summary.Retries,
			MeanLeadHours: res.Summary.MeanLeadHours,
			Duration:      time.Since(start),
		})
	}
	s.log().Infof("batch done: %d assigned, %d unassigned, %d retries", res.Summary.Assigned, res.Summary.Unassigned, res.Summary.Retries)
	return res, err
}

// place secures the earliest free slot for req. Slots lost to a concurrent
// booking are skipped and the search repeats until a commit succeeds or no
// candidate remains.
func (s *Scheduler) place(ctx context.Context, req model.MaintenanceRequest) (model.Reservation, string, int) {
	attempted := make(map[string]struct{})
	retries := 0
	for {
		candidates, err := s.Ledger.FindAvailableSlots(ctx, s.Query)
		if err != nil {
			return model.Reservation{}, ledger.Outcome(err), retries
		}
		var pick *model.Slot
		for i := range candidates {
			if _, seen := attempted[candidates[i].ID]; !seen {
				pick = &candidates[i]
				break
			}
		}
		if pick == nil {
			return model.Reservation{}, ReasonNoSlots, retries
		}
		booking, err := s.Ledger.ConfirmBooking(ctx, ledger.BookingRequest{
			VehicleID:   req.VehicleID,
			Owner:       req.Owner,
			SlotID:      pick.ID,
			ServiceType: req.ServiceType,
			Notes:       req.Components(),
		})
		switch {
		case err == nil:
			return booking, "", retries
		case errors.Is(err, ledger.ErrSlotUnavailable), errors.Is(err, ledger.ErrInvalidSlot):
			s.log().Debugf("slot %s lost for vehicle %s, retrying", pick.ID, req.VehicleID)
			attempted[pick.ID] = struct{}{}
			retries++
		default:
			return model.Reservation{}, ledger.Outcome(err), retries
		}
	}
}

func (s *Scheduler) summarize(reqs []model.MaintenanceRequest, res Result) Summary {
	sum := Summary{
		Requests:   len(reqs),
		Assigned:   len(res.Assignments),
		Unassigned: len(res.Unassigned),
		Retries:    res.Summary.Retries,
	}
	if len(res.Assignments) == 0 {
		return sum
	}
	now := s.now()
	leads := make([]float64, len(res.Assignments))
	for i, a := range res.Assignments {
		leads[i] = a.SlotTime.Sub(now).Hours()
	}
	sum.MeanLeadHours = stat.Mean(leads, nil)
	sum.MaxLeadHours = floats.Max(leads)
	return sum
}

func (s *Scheduler) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Scheduler) log() logger.Logger {
	if s.Log == nil {
		return logger.NopLogger{}
	}
	return s.Log
}
