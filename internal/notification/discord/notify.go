package discord

import (
	"fmt"
	"time"

	"github.com/assist-by/helios/internal/domain"
	"github.com/assist-by/helios/internal/notification"
)

// SendSignal은 시그널 알림을 Discord로 전송합니다
func (c *Client) SendSignal(info notification.SignalInfo) error {
	var title, emoji string
	var color int

	switch info.Action {
	case domain.ActionOpenLong, domain.ActionFlipToLong:
		emoji = "🚀"
		title = "LONG"
		color = notification.ColorSuccess
	case domain.ActionOpenShort, domain.ActionFlipToShort:
		emoji = "🔻"
		title = "SHORT"
		color = notification.ColorError
	default:
		emoji = "⚠️"
		title = "NO SIGNAL"
		color = notification.ColorInfo
	}

	// 진입 조건 상태 표시
	conditions := fmt.Sprintf("%s LONG 진입 (골든 크로스)\n%s SHORT 진입 (데드 크로스)",
		getCheckMark(info.LongEntry),
		getCheckMark(info.ShortEntry))

	// 기술적 지표 값
	technicalValues := fmt.Sprintf("```\n[EMA]: %.5f\n[MA]: %.5f\n[시장 상황]: %s```",
		info.EMA, info.MA, info.Condition)

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("%s %s %s", emoji, title, info.Symbol)).
		SetDescription(fmt.Sprintf("**시간**: %s\n**현재가**: $%.2f\n**행동**: %s",
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Price,
			info.Action)).
		SetColor(color).
		SetFooter("Helios Trading Bot 🤖").
		SetTimestamp(info.Timestamp)

	embed.AddField("진입 조건", conditions, true)
	embed.AddField("기술적 지표", technicalValues, false)

	return c.sendToWebhook(c.signalWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

// SendTradeInfo는 거래 실행 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	desc := fmt.Sprintf("**행동**: %s\n**포지션**: %s\n**크기**: %.2f USDT\n**가격**: $%.2f\n**레버리지**: %dx\n**수수료**: %.4f USDT",
		info.Action, info.PositionType, info.Size, info.Price, info.Leverage, info.Commission)

	if info.Action == "CLOSE" {
		desc += fmt.Sprintf("\n**순손익**: %.4f USDT\n**보유 시간**: %s",
			info.NetPnL, info.HoldDuration.Round(time.Second))
	}

	desc += fmt.Sprintf("\n**잔고**: %.2f USDT", info.Balance)
	if info.PaperTrade {
		desc += "\n**모드**: 모의 거래 📝"
	}

	embed := NewEmbed().
		SetTitle(fmt.Sprintf("거래 실행: %s", info.Symbol)).
		SetDescription(desc).
		SetColor(notification.GetColorForPosition(info.PositionType)).
		SetFooter("Helios Trading Bot 🤖").
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.tradeWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	embed := NewEmbed().
		SetTitle("에러 발생").
		SetDescription(fmt.Sprintf("```%v```", err)).
		SetColor(notification.ColorError).
		SetFooter("Helios Trading Bot 🤖").
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.errorWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	embed := NewEmbed().
		SetDescription(message).
		SetColor(notification.ColorInfo).
		SetFooter("Helios Trading Bot 🤖").
		SetTimestamp(time.Now())

	return c.sendToWebhook(c.infoWebhook, WebhookMessage{
		Embeds: []Embed{*embed},
	})
}

func getCheckMark(condition bool) string {
	if condition {
		return "✅"
	}
	return "❌"
}
