package handlers

import (
	"fmt"
	"runtime/debug"

	"whatsapp-bot/internal/batch"
	"whatsapp-bot/internal/flow"
	"whatsapp-bot/internal/groups"
	"whatsapp-bot/utils"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// batchJob satu batch yang dijalankan di goroutine sendiri
type batchJob struct {
	id     string
	userID int64
	chatID int64
	// messageID pesan konfirmasi yang diganti menjadi pesan progress
	messageID int
	flow      flow.Flow
	title     string
	action    string
	ops       []batch.Operation
	exec      *batch.Executor
	done      tgbotapi.InlineKeyboardMarkup
}

// newExecutor executor dengan pengaturan retry dan jeda dari config
func (b *Bot) newExecutor(action batch.ActionFunc, format func(batch.Outcome) string) *batch.Executor {
	e := batch.New(action)
	e.MaxAttempts = b.settings.MaxAttempts
	e.RetryDelay = b.settings.RetryDelay()
	e.OperationDelay = b.settings.OperationDelay()
	e.RateLimitCooldown = b.settings.RateLimitCooldown()
	e.IsIdempotent = groups.IsIdempotentFailure
	e.IsRateLimit = groups.IsRateLimit
	e.FormatLine = format
	e.Sleep = b.sleep
	return e
}

// startBatch mencatat id batch di sesi user lalu menjalankan job di background.
// u harus sedang dikunci oleh pemanggil.
func (b *Bot) startBatch(u *flow.UserState, ev event, job batchJob) {
	job.id = b.newID()
	job.userID, job.chatID, job.messageID = ev.userID, ev.chatID, ev.messageID
	job.exec.BatchID = job.id
	u.Session().LastBatchID = job.id

	utils.GetBatchLogger().Info("%s: mulai %s, %d operasi (user %d)", job.id, job.title, len(job.ops), job.userID)

	b.jobs.Add(1)
	go b.runBatch(job)
}

func (b *Bot) runBatch(job batchJob) {
	defer b.jobs.Done()
	defer func() {
		if r := recover(); r != nil {
			utils.GetLogger().Error("Panic di batch %s: %v\n%s", job.id, r, debug.Stack())
			b.flows.ClearIf(job.userID, job.flow)
			b.send(job.chatID, msgGenericError, nil)
		}
	}()

	reporter := batch.Reporter{Title: job.title}
	ev := event{userID: job.userID, chatID: job.chatID, messageID: job.messageID, isCallback: job.messageID != 0}
	progressID := b.render(ev, reporter.FormatProgress(0, len(job.ops), nil), nil)

	job.exec.Progress = func(current, total int, transcript []string) {
		if err := b.msg.Edit(job.chatID, progressID, reporter.FormatProgress(current, total, transcript), nil); err != nil {
			utils.GetBatchLogger().Debug("%s: gagal update progress: %v", job.id, err)
		}
	}
	job.exec.Complete = func(s batch.Summary) {
		b.recordBatch(job, s)
		b.flows.ClearIf(job.userID, job.flow)

		text := reporter.FormatSummary(s)
		if err := b.msg.Edit(job.chatID, progressID, text, &job.done); err != nil {
			b.send(job.chatID, text, &job.done)
		}
	}

	s := job.exec.Run(b.ctx, job.ops)
	utils.GetBatchLogger().Info("%s: selesai dalam %v | Berhasil: %d | Gagal: %d | Attempt: %d",
		job.id, s.Duration, s.Succeeded, s.Failed, s.Attempts)
}

// recordBatch menulis ringkasan dan operasi gagal ke activity log. Gagal menulis
// tidak mempengaruhi batch.
func (b *Bot) recordBatch(job batchJob, s batch.Summary) {
	metadata := map[string]interface{}{
		"batch_id":    job.id,
		"total":       s.Total,
		"succeeded":   s.Succeeded,
		"failed":      s.Failed,
		"attempts":    s.Attempts,
		"duration_ms": s.Duration.Milliseconds(),
	}
	description := fmt.Sprintf("%s: %d berhasil, %d gagal", job.title, s.Succeeded, s.Failed)
	errMsg := ""
	if s.Failed > 0 {
		errMsg = fmt.Sprintf("%d operasi gagal", s.Failed)
	}
	if err := utils.LogActivityWithMetadata(job.action, description, job.chatID, metadata, s.Failed == 0, errMsg); err != nil {
		utils.GetBatchLogger().Warn("%s: gagal mencatat activity log: %v", job.id, err)
		return
	}

	for _, out := range s.Outcomes {
		if out.Succeeded {
			continue
		}
		opMeta := map[string]interface{}{
			"batch_id": job.id,
			"group_id": out.GroupID,
			"target":   out.Target,
			"kind":     string(out.Kind),
			"attempts": out.Attempts,
		}
		desc := fmt.Sprintf("%s: %s", out.GroupName, out.Target)
		if err := utils.LogActivityError(utils.ActionOperationFail, desc, job.chatID, out.Err, opMeta); err != nil {
			utils.GetBatchLogger().Warn("%s: gagal mencatat operasi gagal: %v", job.id, err)
		}
	}
}
