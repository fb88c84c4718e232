// Package reporter pushes scrape run outcomes to a Telegram chat.
package reporter

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tuananh131001/ai-job-search/internal/scraper"
)

type TelegramReporter struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramReporter(token string, chatID int64) (*TelegramReporter, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}

	//turn this on in case of debug
	//bot.Debug = true

	return &TelegramReporter{
		bot:    bot,
		chatID: chatID,
	}, nil
}

func (t *TelegramReporter) SendMessage(text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "HTML" //use HTML for bold/italic
	_, err := t.bot.Send(msg)
	return err
}

// SendJob announces a single listing.
func (t *TelegramReporter) SendJob(job scraper.JobData) error {
	salary := "Negotiable"
	if job.SalaryMin != nil && job.SalaryMax != nil {
		salary = fmt.Sprintf("%.0f - %.0f %s", *job.SalaryMin, *job.SalaryMax, job.SalaryCurrency)
	} else if job.SalaryMin != nil {
		salary = fmt.Sprintf("%.0f %s", *job.SalaryMin, job.SalaryCurrency)
	}

	text := fmt.Sprintf(
		"🔥 <b>%s</b>\n"+
			"🏢 %s\n"+
			"💰 %s\n"+
			"📍 %s\n"+
			"🔖 %s\n"+
			"🔗 <a href=\"%s\">Apply Now</a>",
		job.Title,
		job.CompanyName,
		salary,
		job.Location,
		job.Source,
		job.URL,
	)
	return t.SendMessage(text)
}

// SendSummary announces the outcome of a full scrape run.
func (t *TelegramReporter) SendSummary(result *scraper.RunResult) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Scrape run finished</b>\n")
	fmt.Fprintf(&b, "🔍 Found: %d\n", result.TotalJobsFound)
	fmt.Fprintf(&b, "✨ Unique: %d\n", result.UniqueJobs)
	fmt.Fprintf(&b, "💾 Saved: %d\n", result.JobsSaved)

	for source, stats := range result.SourceStats {
		state := "✅"
		if !stats.Success {
			state = "❌"
		}
		fmt.Fprintf(&b, "%s %s: %d matched of %d (%d pages)\n",
			state, source, stats.MatchedJobs, stats.JobsFound, stats.PagesScraped)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(&b, "⚠️ Errors:\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "• %s\n", e)
		}
	}

	return t.SendMessage(b.String())
}

func (t *TelegramReporter) SendError(errReq error) error {
	text := fmt.Sprintf("⚠️ <b>Scraper Error</b>:\n%v", errReq)
	return t.SendMessage(text)
}
