package slots

import (
	"fmt"
	"time"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

// Generator produces the candidate slots for an instant.
type Generator interface {
	// Generate returns every candidate slot for the hour containing now.
	// The result is not sorted.
	Generate(now time.Time) []model.Slot
	// Window is the horizon covered by Generate, measured from the hour
	// containing now.
	Window() time.Duration
	// Centers lists the configured service centers in catalog order.
	Centers() []model.ServiceCenter
}

// New builds the generator for cfg.Cadence. Defaults are applied to a copy.
func New(cfg Config) (Generator, error) {
	cfg.Centers = append([]Center(nil), cfg.Centers...)
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Cadence {
	case CadenceDaily:
		return &DailyGenerator{centers: cfg.Centers, days: cfg.Days, hours: append([]int(nil), cfg.HoursOfDay...)}, nil
	default:
		return &HourlyGenerator{centers: cfg.Centers, lookahead: cfg.LookaheadHours}, nil
	}
}

// TruncateHour drops minutes and below in t's own location. time.Truncate
// works on absolute time and would misalign zones with half-hour offsets.
func TruncateHour(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location())
}

// HourlyGenerator emits one slot per hour offset for each center. Slot ids
// encode the offset: SC001-SLOT-3 is three hours after the current hour.
type HourlyGenerator struct {
	centers   []Center
	lookahead int
}

func (g *HourlyGenerator) Generate(now time.Time) []model.Slot {
	base := TruncateHour(now)
	var out []model.Slot
	for _, c := range g.centers {
		for i := c.FirstOffsetHours; i <= c.LastOffsetHours; i++ {
			out = append(out, model.Slot{
				ID:         fmt.Sprintf("%s-SLOT-%d", c.ID, i),
				CenterID:   c.ID,
				CenterName: c.Name,
				Time:       base.Add(time.Duration(i) * time.Hour),
			})
		}
	}
	return out
}

func (g *HourlyGenerator) Window() time.Duration {
	return time.Duration(g.lookahead) * time.Hour
}

func (g *HourlyGenerator) Centers() []model.ServiceCenter { return toModel(g.centers) }

// DailyGenerator emits slots at fixed hours of the day over the following
// days. Ids carry the calendar time: SC001-20250102-0900.
type DailyGenerator struct {
	centers []Center
	days    int
	hours   []int
}

func (g *DailyGenerator) Generate(now time.Time) []model.Slot {
	base := TruncateHour(now)
	var out []model.Slot
	for _, c := range g.centers {
		for d := 1; d <= g.days; d++ {
			for _, h := range g.hours {
				t := time.Date(base.Year(), base.Month(), base.Day()+d, h, 0, 0, 0, base.Location())
				out = append(out, model.Slot{
					ID:         fmt.Sprintf("%s-%s", c.ID, t.Format("20060102-1504")),
					CenterID:   c.ID,
					CenterName: c.Name,
					Time:       t,
				})
			}
		}
	}
	return out
}

// Window spans up to the end of the last generated day.
func (g *DailyGenerator) Window() time.Duration {
	return time.Duration(g.days+1) * 24 * time.Hour
}

func (g *DailyGenerator) Centers() []model.ServiceCenter { return toModel(g.centers) }

func toModel(cs []Center) []model.ServiceCenter {
	out := make([]model.ServiceCenter, len(cs))
	for i, c := range cs {
		out[i] = model.ServiceCenter{ID: c.ID, Name: c.Name}
	}
	return out
}
