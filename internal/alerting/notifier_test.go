package alerting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/analyzer"
	"cex-arb-alerts/internal/market"
	"cex-arb-alerts/internal/stats"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testOpportunity() market.Opportunity {
	return market.Opportunity{
		Symbol:       "AVAX/USDT",
		BuyVenue:     "binance",
		SellVenue:    "kucoin",
		BuyPrice:     decimal.NewFromFloat(24.10),
		SellPrice:    decimal.NewFromFloat(26.80),
		SpreadPct:    decimal.NewFromFloat(11.2),
		MinVolume24h: decimal.NewFromInt(1_200_000),
		DetectedAt:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestTelegramSendOpportunitySuccess(t *testing.T) {
	received := make(map[string]any)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "sendMessage") {
			t.Fatalf("路径应包含 sendMessage, 实际 %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())

	if err := notifier.SendOpportunities(context.Background(), []market.Opportunity{testOpportunity()}); err != nil {
		t.Fatalf("Telegram 推送应成功: %v", err)
	}

	if received["chat_id"] != "chat" {
		t.Fatalf("chat_id 不正确: %#v", received)
	}
	text, _ := received["text"].(string)
	if !strings.Contains(text, "AVAX/USDT") || !strings.Contains(text, "11.20%") {
		t.Fatalf("text 应包含符号与点差: %q", text)
	}
	if received["parse_mode"] != "HTML" {
		t.Fatalf("parse_mode 应为 HTML: %#v", received)
	}
}

func TestTelegramSendOpportunityError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": false})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.SendOpportunities(context.Background(), []market.Opportunity{testOpportunity()}); err == nil {
		t.Fatal("ok=false 应报错")
	}
}

func TestTelegramSendSystem(t *testing.T) {
	var text string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		text, _ = payload["text"].(string)
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("token", "chat", srv.URL, time.Second, testLogger())
	if err := notifier.SendSystem(context.Background(), "monitoring started"); err != nil {
		t.Fatalf("系统消息应成功: %v", err)
	}
	if !strings.Contains(text, "monitoring started") {
		t.Fatalf("text 应包含系统消息: %q", text)
	}
}

func TestSeverityIcons(t *testing.T) {
	if got := severityIcons(decimal.NewFromFloat(1.0)); got != "🚨" {
		t.Fatalf("small spread should still carry one icon, got %q", got)
	}
	if got := severityIcons(decimal.NewFromInt(40)); got != strings.Repeat("🚨", 10) {
		t.Fatalf("icon count should cap at 10, got %q", got)
	}
}

func TestRenderOpportunityIncludesProfit(t *testing.T) {
	text := renderOpportunity(testOpportunity())
	if !strings.Contains(text, "ROI") {
		t.Fatalf("alert should include the profit estimate: %q", text)
	}
}

func TestRenderOverviewIncludesCooldowns(t *testing.T) {
	ov := analyzer.Overview{
		Timestamp:        time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		SymbolsMonitored: 12,
	}
	text := renderOverview(ov, stats.Summary{AlertsSent: 3}, 7)
	if !strings.Contains(text, "Active cooldowns: <b>7</b>") {
		t.Fatalf("overview should report the cooldown table size: %q", text)
	}
}
