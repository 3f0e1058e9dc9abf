package slots

import (
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sambhavthakkar/PulseDrive/core/model"
)

func ids(slots []model.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.ID
	}
	sort.Strings(out)
	return out
}

func TestHourlyGenerator_Defaults(t *testing.T) {
	g, err := New(Config{})
	require.NoError(t, err)
	now := time.Date(2025, 3, 10, 8, 42, 17, 0, time.UTC)
	got := g.Generate(now)

	// SC001 covers offsets 1..47, SC002 2..47.
	assert.Len(t, got, 47+46)
	assert.Equal(t, 48*time.Hour, g.Window())

	byID := map[string]model.Slot{}
	for _, s := range got {
		byID[s.ID] = s
	}
	first, ok := byID["SC001-SLOT-1"]
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, "Pulse Service Hub - North", first.CenterName)
	_, ok = byID["SC002-SLOT-1"]
	assert.False(t, ok)
	_, ok = byID["SC002-SLOT-2"]
	assert.True(t, ok)
	_, ok = byID["SC001-SLOT-48"]
	assert.False(t, ok)
}

func TestHourlyGenerator_DeterministicWithinHour(t *testing.T) {
	g, err := New(Config{})
	require.NoError(t, err)
	a := g.Generate(time.Date(2025, 3, 10, 8, 0, 1, 0, time.UTC))
	b := g.Generate(time.Date(2025, 3, 10, 8, 59, 59, 0, time.UTC))
	assert.Equal(t, ids(a), ids(b))
	for i := range a {
		assert.True(t, a[i].Time.Equal(b[i].Time))
	}
}

func TestTruncateHour_HalfHourZone(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2025, 3, 10, 14, 47, 0, 0, ist)
	assert.Equal(t, time.Date(2025, 3, 10, 14, 0, 0, 0, ist), TruncateHour(now))
}

func TestDailyGenerator(t *testing.T) {
	g, err := New(Config{
		Cadence: CadenceDaily,
		Days:    2,
		Centers: []Center{{ID: "SC001", Name: "North"}, {ID: "SC003", Name: "Authorized Jeep Center"}},
	})
	require.NoError(t, err)
	got := g.Generate(time.Date(2025, 12, 31, 18, 5, 0, 0, time.UTC))
	require.Len(t, got, 2*2*4)
	assert.Contains(t, ids(got), "SC001-20260101-0900")
	assert.Contains(t, ids(got), "SC003-20260102-1600")
	for _, s := range got {
		assert.True(t, strings.HasPrefix(s.ID, s.CenterID+"-"))
		assert.Zero(t, s.Time.Minute())
	}
	assert.Equal(t, []model.ServiceCenter{{ID: "SC001", Name: "North"}, {ID: "SC003", Name: "Authorized Jeep Center"}}, g.Centers())
}

func TestDailyGenerator_DefaultCatalog(t *testing.T) {
	g, err := New(Config{Cadence: CadenceDaily})
	require.NoError(t, err)
	centers := g.Centers()
	require.Len(t, centers, 3)
	assert.Equal(t, model.ServiceCenter{ID: "SC003", Name: "Authorized Jeep Center"}, centers[2])

	got := g.Generate(time.Date(2025, 12, 31, 18, 5, 0, 0, time.UTC))
	assert.Len(t, got, 3*7*4)
	assert.Contains(t, ids(got), "SC003-20260107-1600")

	hourly, err := New(Config{})
	require.NoError(t, err)
	assert.Len(t, hourly.Centers(), 2)
}

func TestNew_DoesNotMutateCallerCenters(t *testing.T) {
	centers := []Center{{ID: "SC001", Name: "North"}}
	_, err := New(Config{Centers: centers})
	require.NoError(t, err)
	assert.Zero(t, centers[0].FirstOffsetHours)
}

func TestConfigValidate(t *testing.T) {
	cases := map[string]Config{
		"cadence":   {Cadence: "weekly"},
		"hour":      {HoursOfDay: []int{25}},
		"duplicate": {Centers: []Center{{ID: "A"}, {ID: "A"}}},
		"dash":      {Centers: []Center{{ID: "SC-1"}}},
		"empty id":  {Centers: []Center{{Name: "x"}}},
		"range":     {Centers: []Center{{ID: "A", FirstOffsetHours: 5, LastOffsetHours: 2}}},
		"beyond":    {Centers: []Center{{ID: "A", LastOffsetHours: 100}}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			cfg.SetDefaults()
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDecodeConfig(t *testing.T) {
	yamlDoc := `
cadence: hourly
lookahead_hours: 24
centers:
  - id: SC001
    name: North
    first_offset_hours: 1
`
	cfg, err := DecodeConfig(strings.NewReader(yamlDoc), "yaml")
	require.NoError(t, err)
	assert.Equal(t, 23, cfg.Centers[0].LastOffsetHours)

	tomlDoc := `
cadence = "daily"
days = 3
hours_of_day = [10, 15]

[[centers]]
id = "SC003"
name = "Authorized Jeep Center"
`
	cfg, err = DecodeConfig(strings.NewReader(tomlDoc), "toml")
	require.NoError(t, err)
	assert.Equal(t, CadenceDaily, cfg.Cadence)
	assert.Equal(t, []int{10, 15}, cfg.HoursOfDay)
	assert.Equal(t, "SC003", cfg.Centers[0].ID)

	cfg, err = DecodeConfig(strings.NewReader(`{"centers":[{"id":"SC009","name":"East"}]}`), "json")
	require.NoError(t, err)
	assert.Equal(t, "East", cfg.Centers[0].Name)

	_, err = DecodeConfig(strings.NewReader(""), "ini")
	assert.Error(t, err)
}
