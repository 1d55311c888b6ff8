package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"cex-arb-alerts/internal/analyzer"
	"cex-arb-alerts/internal/market"
	"cex-arb-alerts/internal/stats"
)

// Notifier 定义告警输送接口。
type Notifier interface {
	SendOpportunities(ctx context.Context, opps []market.Opportunity) error
	SendOverview(ctx context.Context, ov analyzer.Overview, session stats.Summary, activeCooldowns int) error
	SendSystem(ctx context.Context, text string) error
}

// messagePause spaces consecutive messages to stay inside bot API limits.
const messagePause = 2 * time.Second

// referenceTradeUSD sizes the profit estimate shown in alerts.
var referenceTradeUSD = decimal.NewFromInt(1000)

// TelegramNotifier 通过 Telegram Bot API 推送消息。
type TelegramNotifier struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
	pause    time.Duration
}

// NewTelegramNotifier 构造 Telegram 告警器。
func NewTelegramNotifier(botToken, chatID, baseURL string, timeout time.Duration, logger zerolog.Logger) *TelegramNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}

	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_telegram").Logger(),
		pause:    messagePause,
	}
}

// SendOpportunities 逐条推送套利告警。
func (n *TelegramNotifier) SendOpportunities(ctx context.Context, opps []market.Opportunity) error {
	for i, opp := range opps {
		if err := n.sendMessage(ctx, renderOpportunity(opp)); err != nil {
			return fmt.Errorf("send alert for %s: %w", opp.Symbol, err)
		}
		n.logger.Info().
			Str("symbol", opp.Symbol).
			Str("spread_pct", opp.SpreadPct.StringFixed(2)).
			Msg("告警已发送 (Telegram)")

		if i < len(opps)-1 {
			timer := time.NewTimer(n.pause)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return nil
}

// SendOverview 推送市场概览与会话统计。
func (n *TelegramNotifier) SendOverview(ctx context.Context, ov analyzer.Overview, session stats.Summary, activeCooldowns int) error {
	return n.sendMessage(ctx, renderOverview(ov, session, activeCooldowns))
}

// SendSystem 推送系统消息。
func (n *TelegramNotifier) SendSystem(ctx context.Context, text string) error {
	return n.sendMessage(ctx, "🤖 <b>arbwatcher</b>\n\n"+text)
}

func (n *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	payload := map[string]any{
		"chat_id":                  n.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send telegram request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("telegram 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK bool `json:"ok"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("telegram 返回 ok=false")
		}
	}
	return nil
}

func renderOpportunity(opp market.Opportunity) string {
	profit := opp.EstimateProfit(referenceTradeUSD)

	builder := strings.Builder{}
	builder.WriteString(fmt.Sprintf("%s <b>ARBITRAGE %s%%</b>\n\n", severityIcons(opp.SpreadPct), opp.SpreadPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("💎 <b>Symbol:</b> %s\n", opp.Symbol))
	builder.WriteString(fmt.Sprintf("💰 <b>Spread:</b> <b>%s%%</b>\n\n", opp.SpreadPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("📈 <b>BUY:</b> %s @ <code>$%s</code>\n", opp.BuyVenue, opp.BuyPrice.StringFixed(8)))
	builder.WriteString(fmt.Sprintf("📉 <b>SELL:</b> %s @ <code>$%s</code>\n\n", opp.SellVenue, opp.SellPrice.StringFixed(8)))
	builder.WriteString(fmt.Sprintf("📊 <b>Volume 24h:</b> <code>$%s</code>\n", opp.MinVolume24h.StringFixed(0)))
	builder.WriteString(fmt.Sprintf("💵 <b>Est. net on $%s:</b> <code>$%s</code> (ROI %s%%)\n", referenceTradeUSD.StringFixed(0), profit.NetProfit.StringFixed(2), profit.ROIPct.StringFixed(2)))
	builder.WriteString(fmt.Sprintf("⏰ <b>Time:</b> <code>%s</code>", opp.DetectedAt.UTC().Format("15:04:05")))
	return builder.String()
}

func renderOverview(ov analyzer.Overview, session stats.Summary, activeCooldowns int) string {
	builder := strings.Builder{}
	builder.WriteString("📊 <b>Market overview</b>\n\n")
	builder.WriteString(fmt.Sprintf("• Symbols monitored: <b>%d</b>\n", ov.SymbolsMonitored))
	builder.WriteString(fmt.Sprintf("• Above threshold: <b>%d</b> (%s%%)\n", ov.SymbolsWithSpread, ov.SpreadRatioPct.StringFixed(1)))
	builder.WriteString(fmt.Sprintf("• Max spread: <b>%s%%</b>\n", ov.MaxSpreadPct.StringFixed(2)))
	if ov.Best != nil {
		builder.WriteString(fmt.Sprintf("• Best pair: %s %s%% (%s → %s)\n", ov.Best.Symbol, ov.Best.SpreadPct.StringFixed(2), ov.Best.BuyVenue, ov.Best.SellVenue))
	} else {
		builder.WriteString("• Best pair: none\n")
	}
	builder.WriteString("\n📈 <b>Session:</b>\n")
	builder.WriteString(fmt.Sprintf("• Cycles: <b>%d</b>\n", session.CyclesCompleted))
	builder.WriteString(fmt.Sprintf("• Opportunities found: <b>%d</b>\n", session.OpportunitiesFound))
	builder.WriteString(fmt.Sprintf("• Alerts sent: <b>%d</b>\n", session.AlertsSent))
	builder.WriteString(fmt.Sprintf("• Active cooldowns: <b>%d</b>\n", activeCooldowns))
	builder.WriteString(fmt.Sprintf("\n⏰ %s", ov.Timestamp.UTC().Format(time.RFC3339)))
	return builder.String()
}

// severityIcons scales the alert header with the spread size.
func severityIcons(spread decimal.Decimal) string {
	n := int(spread.Div(decimal.NewFromFloat(1.95)).IntPart())
	if n < 1 {
		n = 1
	}
	if n > 10 {
		n = 10
	}
	return strings.Repeat("🚨", n)
}

var _ Notifier = (*TelegramNotifier)(nil)
