package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sambhavthakkar/PulseDrive/auth"
	"github.com/sambhavthakkar/PulseDrive/core/ledger"
	"github.com/sambhavthakkar/PulseDrive/core/model"
	"github.com/sambhavthakkar/PulseDrive/infra/logger"
)

// HTTPConfig locates the remote booking collection.
type HTTPConfig struct {
	BaseURL  string        `json:"base_url"`
	Resource string        `json:"resource"`
	Timeout  time.Duration `json:"timeout"`
	Auth     auth.Conf     `json:"auth"`
}

// SetDefaults applies sane defaults.
func (c *HTTPConfig) SetDefaults() {
	if c.Resource == "" {
		c.Resource = "service-centres"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

// Validate checks mandatory fields.
func (c HTTPConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("http store: base_url is required")
	}
	return c.Auth.Validate()
}

// HTTPStore keeps reservations in a remote REST collection such as a MockAPI
// project. Records are normalised at this edge: the collection may answer
// with a bare list or a {"bookings": [...]} envelope, use either centre_name
// or center_name, slot_time or slot_datetime, and a plain string owner.
type HTTPStore struct {
	cfg    HTTPConfig
	client *http.Client
	creds  *auth.ClientCred
	log    logger.Logger
}

func NewHTTPStore(cfg HTTPConfig) (*HTTPStore, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &HTTPStore{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		log:    logger.New("http-store"),
	}
	if cfg.Auth.Enabled() {
		s.creds = auth.NewClientCred(cfg.Auth)
	}
	return s, nil
}

func (s *HTTPStore) collectionURL() string {
	return strings.TrimSuffix(s.cfg.BaseURL, "/") + "/" + strings.Trim(s.cfg.Resource, "/")
}

func (s *HTTPStore) do(ctx context.Context, method, url string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if s.creds != nil {
		if err := s.creds.SetAuthHeader(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to set auth header: %w", err)
		}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	return resp, nil
}

func (s *HTTPStore) List(ctx context.Context) ([]model.Reservation, error) {
	resp, err := s.do(ctx, http.MethodGet, s.collectionURL(), nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	raws, err := decodeCollection(body)
	if err != nil {
		return nil, err
	}
	out := make([]model.Reservation, 0, len(raws))
	for i, raw := range raws {
		var w wireBooking
		if err := json.Unmarshal(raw, &w); err != nil {
			// Keep the slot claim of records we cannot fully decode.
			var claim struct {
				ID     string `json:"id"`
				SlotID string `json:"slot_id"`
			}
			if json.Unmarshal(raw, &claim) != nil || claim.SlotID == "" {
				s.log.Debugw("skipping malformed booking record", map[string]any{"index": i, "error": err.Error()})
				continue
			}
			w = wireBooking{ID: claim.ID, SlotID: claim.SlotID}
		}
		r := w.reservation()
		if r.SlotID == "" && r.BookingID == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *HTTPStore) Create(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	resp, err := s.do(ctx, http.MethodPost, s.collectionURL(), toWire(r))
	if err != nil {
		return model.Reservation{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("failed to read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusConflict:
		return model.Reservation{}, fmt.Errorf("slot %s: %w", r.SlotID, ledger.ErrSlotUnavailable)
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated:
		return model.Reservation{}, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
	var w wireBooking
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &w); err != nil {
			return model.Reservation{}, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	r.StoreRef = w.ID
	return r, nil
}

// Remove deletes the remote record. Records without a store reference are
// looked up by booking id first.
func (s *HTTPStore) Remove(ctx context.Context, r model.Reservation) error {
	ref := r.StoreRef
	if ref == "" {
		all, err := s.List(ctx)
		if err != nil {
			return err
		}
		for _, rec := range all {
			if rec.BookingID == r.BookingID && rec.StoreRef != "" {
				ref = rec.StoreRef
				break
			}
		}
		if ref == "" {
			return ledger.ErrNotFound
		}
	}
	resp, err := s.do(ctx, http.MethodDelete, s.collectionURL()+"/"+ref, nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusAccepted:
		return nil
	case http.StatusNotFound:
		return ledger.ErrNotFound
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}
}

func decodeCollection(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	var list []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
	case '{':
		var env struct {
			Bookings []json.RawMessage `json:"bookings"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		list = env.Bookings
	default:
		return nil, errors.New("failed to decode response: unexpected payload")
	}
	return list, nil
}

// wireBooking is the record shape exchanged with the remote collection.
type wireBooking struct {
	ID            string      `json:"id,omitempty"`
	BookingID     string      `json:"booking_id"`
	VehicleID     string      `json:"vehicle_id"`
	Owner         model.Owner `json:"owner"`
	OwnerName     string      `json:"owner_name,omitempty"`
	SlotID        string      `json:"slot_id"`
	CenterID      string      `json:"center_id"`
	CenterName    string      `json:"center_name,omitempty"`
	CentreName    string      `json:"centre_name,omitempty"`
	SlotTime      string      `json:"slot_time,omitempty"`
	SlotDatetime  string      `json:"slot_datetime,omitempty"`
	ServiceType   string      `json:"service_type"`
	Notes         string      `json:"notes,omitempty"`
	EstimatedCost flexString  `json:"estimated_cost,omitempty"`
	CostAmount    float64     `json:"estimated_cost_amount,omitempty"`
	Status        string      `json:"status,omitempty"`
	CreatedAt     string      `json:"created_at,omitempty"`
}

func toWire(r model.Reservation) wireBooking {
	return wireBooking{
		BookingID:     r.BookingID,
		VehicleID:     r.VehicleID,
		Owner:         r.Owner,
		SlotID:        r.SlotID,
		CenterID:      r.CenterID,
		CentreName:    r.CenterName,
		SlotDatetime:  r.SlotTime.Format(time.RFC3339),
		ServiceType:   r.ServiceType,
		Notes:         r.Notes,
		EstimatedCost: flexString(r.EstimatedCost),
		CostAmount:    r.CostAmount,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
	}
}

func (w wireBooking) reservation() model.Reservation {
	r := model.Reservation{
		BookingID:     w.BookingID,
		VehicleID:     w.VehicleID,
		Owner:         w.Owner,
		SlotID:        w.SlotID,
		CenterID:      w.CenterID,
		CenterName:    firstNonEmpty(w.CenterName, w.CentreName),
		SlotTime:      parseTime(firstNonEmpty(w.SlotTime, w.SlotDatetime)),
		ServiceType:   w.ServiceType,
		Notes:         w.Notes,
		EstimatedCost: string(w.EstimatedCost),
		CostAmount:    w.CostAmount,
		CreatedAt:     parseTime(w.CreatedAt),
		StoreRef:      w.ID,
		Status:        model.StatusConfirmed,
	}
	if r.Owner.Name == "" {
		r.Owner.Name = w.OwnerName
	}
	switch strings.ToLower(w.Status) {
	case "cancelled", "canceled":
		r.Status = model.StatusCancelled
	}
	if r.CenterID == "" {
		if i := strings.Index(r.SlotID, "-"); i > 0 {
			r.CenterID = r.SlotID[:i]
		}
	}
	return r
}

// flexString decodes either a JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", model.DateLayout, "2006-01-02 15:04:05"}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
