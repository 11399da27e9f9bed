package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"tokenbot/internal/adapters/tokens"
	tokenService "tokenbot/internal/application/token"
	domainToken "tokenbot/internal/domain/token"
	"tokenbot/internal/domain/watcher"
	httpports "tokenbot/internal/ports/http"
)

const (
	addrCake = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"
	addrBusd = "0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359"
)

func newTestServer(t *testing.T) (*Server, *tokenService.Service) {
	t.Helper()
	repo := tokens.NewMemoryRepository(
		domainToken.NewRecord("", addrCake, "CAKE", 18, 5),
		domainToken.NewRecord("", addrBusd, "BUSD", 18, 1),
	)
	svc := tokenService.NewService(repo, nil)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return NewServer(Config{Port: "0"}, NewHandlerAdapter(svc, nil), nil), svc
}

func serve(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestListTokens(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(t, s, "/api/v1/tokens")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body httpports.TokenList
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Total != 2 || len(body.Data) != 2 {
		t.Fatalf("total = %d, len = %d, want 2", body.Total, len(body.Data))
	}
	if body.Data[0].Symbol != "BUSD" || body.Data[1].Symbol != "CAKE" {
		t.Errorf("order = %s, %s, want BUSD, CAKE", body.Data[0].Symbol, body.Data[1].Symbol)
	}
}

func TestGetToken(t *testing.T) {
	tests := []struct {
		name       string
		address    string
		wantStatus int
	}{
		{name: "known", address: addrCake, wantStatus: http.StatusOK},
		{name: "not checksummed", address: strings.ToLower(addrCake), wantStatus: http.StatusBadRequest},
		{name: "garbage", address: "cake", wantStatus: http.StatusBadRequest},
		{name: "unknown", address: "0x52908400098527886E0F7030069857D2E4169EE7", wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestServer(t)

			rec := serve(t, s, "/api/v1/tokens/"+tt.address)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d, body %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestGetToken_ReflectsWatcherEdits(t *testing.T) {
	ctx := context.Background()
	s, svc := newTestServer(t)

	svc.Update(ctx, addrCake, func(w *watcher.TokenWatcher) {
		staged := w.Record.Clone()
		icon := "🥞"
		staged.Icon = &icon
		staged.DefaultSlippage = 12
		w.ApplyIcon(staged)
		w.ApplySlippage(staged)
	})

	rec := serve(t, s, "/api/v1/tokens/"+addrCake)
	var body httpports.Token
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Name != "🥞 CAKE" || body.DefaultSlippage != 12 {
		t.Errorf("token = %+v, want name %q and slippage 12", body, "🥞 CAKE")
	}
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body httpports.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if body.Status != "ok" || body.Tokens != 2 {
		t.Errorf("health = %+v, want ok with 2 tokens", body)
	}
}
