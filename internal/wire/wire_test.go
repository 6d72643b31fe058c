package wire

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"stayhub/internal/data/repository/repotest"
	"stayhub/internal/gateway"
	"stayhub/internal/notification"
	"stayhub/pkg/utils"

	"go.uber.org/zap"
)

type stubGateway struct{}

func (stubGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	return &gateway.InitializeResult{
		Success:     true,
		CheckoutURL: "https://checkout.chapa.co/" + req.TxRef,
		Payload:     json.RawMessage(`{"status":"success"}`),
	}, nil
}

func (stubGateway) Verify(_ context.Context, txRef string) (*gateway.VerifyResult, error) {
	return &gateway.VerifyResult{
		Success:   true,
		Status:    "success",
		Reference: "APfx-" + txRef,
		Payload:   json.RawMessage(`{"status":"success","data":{"status":"success"}}`),
	}, nil
}

type recordingDispatcher struct {
	mu   sync.Mutex
	keys []string
}

func (d *recordingDispatcher) Enqueue(_ context.Context, event notification.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, event.Key)
}

func (d *recordingDispatcher) count(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.keys {
		if k == key {
			n++
		}
	}
	return n
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  json.RawMessage `json:"errors"`
}

type testServer struct {
	t          *testing.T
	srv        *httptest.Server
	dispatcher *recordingDispatcher
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	config := &utils.Config{
		App:     utils.AppConfig{Name: "stayhub", PublicBaseURL: "http://api.test"},
		JWT:     utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Gateway: utils.GatewayConfig{Currency: "USD", ReturnURL: "http://app.test/done"},
	}
	dispatcher := &recordingDispatcher{}
	app := Wiring(repotest.NewStore().Repository(), stubGateway{}, dispatcher, config, zap.NewNop())

	srv := httptest.NewServer(app.Router)
	t.Cleanup(srv.Close)
	return &testServer{t: t, srv: srv, dispatcher: dispatcher}
}

func (s *testServer) do(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, s.srv.URL+path, reader)
	if err != nil {
		s.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.srv.Client().Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		_ = json.NewDecoder(resp.Body).Decode(&env)
	}
	return resp.StatusCode, env
}

func (s *testServer) register(email, role string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":      email,
		"password":   "supersecret",
		"first_name": "Abebe",
		"last_name":  "Kebede",
		"role":       role,
	})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d, %s", email, code, env.Message)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
	}
	decodeData(s.t, env, &auth)
	return auth.AccessToken
}

func decodeData(t *testing.T, env envelope, dst any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.srv.Client().Get(s.srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestAuth_LoginAndProfile(t *testing.T) {
	s := newTestServer(t)
	s.register("guest@example.com", "guest")

	code, env := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "GUEST@example.com",
		"password": "supersecret",
	})
	if code != http.StatusOK {
		t.Fatalf("login status = %d, %s", code, env.Message)
	}
	var auth struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	decodeData(t, env, &auth)
	if auth.AccessToken == "" || auth.TokenType != "Bearer" {
		t.Fatalf("auth = %+v", auth)
	}

	code, env = s.do(http.MethodGet, "/api/users/me", auth.AccessToken, nil)
	if code != http.StatusOK {
		t.Fatalf("profile status = %d", code)
	}
	var profile struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	decodeData(t, env, &profile)
	if profile.Email != "guest@example.com" || profile.Role != "guest" {
		t.Fatalf("profile = %+v", profile)
	}

	code, _ = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "guest@example.com",
		"password": "wrong-password",
	})
	if code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d", code)
	}
}

func TestAuth_RejectsMissingAndBadTokens(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodGet, "/api/bookings", "", nil); code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/bookings", "not-a-jwt", nil); code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", code)
	}
}

func TestAuth_DeletedAccountTokenRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.register("gone@example.com", "guest")

	if code, _ := s.do(http.MethodDelete, "/api/users/me", token, nil); code != http.StatusNoContent {
		t.Fatalf("delete account status = %d", code)
	}
	if code, _ := s.do(http.MethodGet, "/api/users/me", token, nil); code != http.StatusUnauthorized {
		t.Fatalf("profile after delete status = %d", code)
	}
}

func TestListings_HostOnlyWrites(t *testing.T) {
	s := newTestServer(t)
	host := s.register("host@example.com", "host")
	other := s.register("other@example.com", "admin")

	code, env := s.do(http.MethodPost, "/api/listings", host, map[string]any{
		"name":            "Lakeside Cabin",
		"description":     "Quiet cabin by the lake",
		"location":        "Bishoftu",
		"price_per_night": "120.50",
	})
	if code != http.StatusCreated {
		t.Fatalf("create listing status = %d, %s", code, env.Message)
	}
	var listing struct {
		ID            string `json:"id"`
		PricePerNight string `json:"price_per_night"`
	}
	decodeData(t, env, &listing)
	if listing.PricePerNight != "120.50" {
		t.Fatalf("price = %q", listing.PricePerNight)
	}

	// Reads are public
	if code, _ := s.do(http.MethodGet, "/api/listings/"+listing.ID, "", nil); code != http.StatusOK {
		t.Fatalf("public get status = %d", code)
	}

	patch := map[string]any{"name": "Renamed"}
	if code, _ := s.do(http.MethodPatch, "/api/listings/"+listing.ID, other, patch); code != http.StatusForbidden {
		t.Fatalf("non-host patch status = %d", code)
	}
	if code, _ := s.do(http.MethodPatch, "/api/listings/"+listing.ID, "", patch); code != http.StatusUnauthorized {
		t.Fatalf("anonymous patch status = %d", code)
	}
	if code, _ := s.do(http.MethodPatch, "/api/listings/"+listing.ID, host, patch); code != http.StatusOK {
		t.Fatalf("host patch status = %d", code)
	}

	code, env = s.do(http.MethodGet, "/api/listings/?search=renamed&per_page=5", "", nil)
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	var page struct {
		Count   int64             `json:"count"`
		Results []json.RawMessage `json:"results"`
	}
	decodeData(t, env, &page)
	if page.Count != 1 || len(page.Results) != 1 {
		t.Fatalf("page = %+v", page)
	}

	code, env = s.do(http.MethodGet, "/api/listings?ordering=secret_column", "", nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad ordering status = %d, %s", code, env.Message)
	}
}

func TestBookingAndPaymentFlow(t *testing.T) {
	s := newTestServer(t)
	host := s.register("host@example.com", "host")
	guest := s.register("guest@example.com", "guest")
	stranger := s.register("stranger@example.com", "guest")

	_, env := s.do(http.MethodPost, "/api/listings", host, map[string]any{
		"name":            "City Loft",
		"description":     "Top floor loft",
		"location":        "Addis Ababa",
		"price_per_night": 100,
	})
	var listing struct {
		ID string `json:"id"`
	}
	decodeData(t, env, &listing)

	start := utils.TruncateDate(time.Now().UTC().AddDate(0, 0, 2))
	code, env := s.do(http.MethodPost, "/api/bookings/", guest, map[string]any{
		"property_id": listing.ID,
		"start_date":  start.Format(utils.DateLayout),
		"end_date":    start.AddDate(0, 0, 3).Format(utils.DateLayout),
		"total_price": "1.00",
	})
	if code != http.StatusCreated {
		t.Fatalf("create booking status = %d, %s %s", code, env.Message, env.Errors)
	}
	var booking struct {
		ID         string `json:"id"`
		TotalPrice string `json:"total_price"`
		Status     string `json:"status"`
		Nights     int    `json:"nights"`
	}
	decodeData(t, env, &booking)
	if booking.TotalPrice != "300.00" || booking.Nights != 3 || booking.Status != "pending" {
		t.Fatalf("booking = %+v", booking)
	}
	if got := s.dispatcher.count(notification.RKBookingCreated); got != 1 {
		t.Fatalf("booking.created events = %d", got)
	}

	if code, _ := s.do(http.MethodGet, "/api/bookings/"+booking.ID, stranger, nil); code != http.StatusNotFound {
		t.Fatalf("stranger get booking status = %d", code)
	}
	if code, _ := s.do(http.MethodPost, "/api/payments/"+booking.ID+"/initiate", stranger, nil); code != http.StatusNotFound {
		t.Fatalf("stranger initiate status = %d", code)
	}

	code, env = s.do(http.MethodPost, "/api/payments/"+booking.ID+"/initiate", guest, nil)
	if code != http.StatusOK {
		t.Fatalf("initiate status = %d, %s", code, env.Message)
	}
	var initiated struct {
		CheckoutURL string `json:"checkout_url"`
		TxRef       string `json:"tx_ref"`
	}
	decodeData(t, env, &initiated)
	if initiated.TxRef == "" || initiated.CheckoutURL == "" {
		t.Fatalf("initiate = %+v", initiated)
	}

	// A second initiate reuses the pending payment
	_, env = s.do(http.MethodPost, "/api/payments/"+booking.ID+"/initiate", guest, nil)
	var again struct {
		TxRef string `json:"tx_ref"`
	}
	decodeData(t, env, &again)
	if again.TxRef != initiated.TxRef {
		t.Fatalf("second initiate tx_ref = %q, want %q", again.TxRef, initiated.TxRef)
	}

	// Gateway callback: anonymous, trailing slash, callback params
	q := url.Values{}
	q.Set("trx_ref", initiated.TxRef)
	q.Set("ref_id", "APfx-cb")
	q.Set("status", "success")
	code, env = s.do(http.MethodGet, "/api/payments/verify/"+initiated.TxRef+"/?"+q.Encode(), "", nil)
	if code != http.StatusOK {
		t.Fatalf("verify status = %d, %s", code, env.Message)
	}
	var verified struct {
		Status string `json:"status"`
	}
	decodeData(t, env, &verified)
	if verified.Status != "completed" {
		t.Fatalf("verify status = %q", verified.Status)
	}

	// Verifying again is a no-op on a terminal payment
	s.do(http.MethodGet, "/api/payments/verify/"+initiated.TxRef, guest, nil)
	if got := s.dispatcher.count(notification.RKPaymentCompleted); got != 1 {
		t.Fatalf("payment.completed events = %d", got)
	}

	code, env = s.do(http.MethodGet, "/api/payments/"+initiated.TxRef, guest, nil)
	if code != http.StatusOK {
		t.Fatalf("get payment status = %d", code)
	}
	var payment struct {
		Status string `json:"status"`
		Amount string `json:"amount"`
	}
	decodeData(t, env, &payment)
	if payment.Status != "completed" || payment.Amount != "300.00" {
		t.Fatalf("payment = %+v", payment)
	}

	code, env = s.do(http.MethodGet, "/api/bookings/"+booking.ID+"/payments", guest, nil)
	if code != http.StatusOK {
		t.Fatalf("list payments status = %d", code)
	}
	var payments []json.RawMessage
	decodeData(t, env, &payments)
	if len(payments) != 1 {
		t.Fatalf("payments = %d", len(payments))
	}

	if code, _ := s.do(http.MethodPost, "/api/payments/"+booking.ID+"/initiate", guest, nil); code != http.StatusBadRequest {
		t.Fatalf("initiate after completion status = %d", code)
	}
	if code, _ := s.do(http.MethodDelete, "/api/bookings/"+booking.ID, guest, nil); code != http.StatusBadRequest {
		t.Fatalf("delete paid booking status = %d", code)
	}
}

func TestVerify_UnknownTxRef(t *testing.T) {
	s := newTestServer(t)

	if code, _ := s.do(http.MethodGet, "/api/payments/verify/booking-unknown", "", nil); code != http.StatusNotFound {
		t.Fatalf("status = %d", code)
	}
}
