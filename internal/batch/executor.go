// Package batch menjalankan daftar operasi grup satu per satu dengan retry,
// jeda anti rate limit, deteksi kegagalan idempoten, dan laporan progress.
package batch

import (
	"context"
	"errors"
	"time"

	"whatsapp-bot/utils"
)

// Kind jenis operasi
type Kind string

const (
	KindAddPromote Kind = "add_promote"
	KindDemote     Kind = "demote"
	KindRename     Kind = "rename"
	KindAddMember  Kind = "add_member"
)

// Operation satu operasi (grup, target). Target adalah nomor peserta, atau nama
// baru untuk rename.
type Operation struct {
	GroupID   string
	GroupName string
	Target    string
	Kind      Kind
}

// PrereqState apa yang terjadi pada langkah prasyarat
type PrereqState int

const (
	PrereqNone      PrereqState = iota // tidak ada prasyarat
	PrereqSatisfied                    // precheck: sudah terpenuhi, dilewati
	PrereqPerformed                    // prasyarat dijalankan dan berhasil
	PrereqAlready                      // prasyarat gagal idempoten, dianggap terpenuhi
	PrereqFailed
)

// Outcome hasil akhir satu operasi
type Outcome struct {
	Operation
	Succeeded   bool
	AlreadyDone bool
	Prereq      PrereqState
	Attempts    int
	Err         error
}

// rateLimited true jika operasi gagal karena rate limit
func (o Outcome) rateLimited(isRateLimit func(error) bool) bool {
	return !o.Succeeded && o.Err != nil && isRateLimit != nil && isRateLimit(o.Err)
}

// Summary ringkasan setelah semua operasi selesai
type Summary struct {
	Total      int
	Succeeded  int
	Failed     int
	Attempts   int
	Outcomes   []Outcome
	Transcript []string
	Duration   time.Duration
}

type (
	// ActionFunc aksi yang mengubah state grup
	ActionFunc func(ctx context.Context, op Operation) error
	// PrecheckFunc cek read-only: true jika prasyarat sudah terpenuhi
	PrecheckFunc func(ctx context.Context, op Operation) (bool, error)
	// ProgressFunc dipanggil sekali per operasi yang selesai
	ProgressFunc func(current, total int, transcript []string)
	// SleepFunc menunggu d atau sampai ctx selesai
	SleepFunc func(ctx context.Context, d time.Duration) error
)

const (
	DefaultMaxAttempts       = 3
	DefaultRetryDelay        = 3 * time.Second
	DefaultOperationDelay    = 3 * time.Second
	DefaultRateLimitCooldown = 10 * time.Second
)

// Executor menjalankan operasi secara berurutan, tidak pernah paralel
type Executor struct {
	BatchID string

	Action       ActionFunc
	Prerequisite ActionFunc
	Precheck     PrecheckFunc
	IsIdempotent func(error) bool
	IsRateLimit  func(error) bool

	Progress   ProgressFunc
	Complete   func(Summary)
	FormatLine func(Outcome) string

	MaxAttempts        int
	RetryDelay         time.Duration
	OperationDelay     time.Duration
	RateLimitCooldown  time.Duration
	PrerequisiteSettle time.Duration

	Sleep SleepFunc
	Now   func() time.Time
}

// New executor dengan nilai default
func New(action ActionFunc) *Executor {
	return &Executor{
		Action:            action,
		MaxAttempts:       DefaultMaxAttempts,
		RetryDelay:        DefaultRetryDelay,
		OperationDelay:    DefaultOperationDelay,
		RateLimitCooldown: DefaultRateLimitCooldown,
	}
}

// ContextSleep implementasi SleepFunc dengan timer
func ContextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (e *Executor) sleep(ctx context.Context, d time.Duration) error {
	if e.Sleep != nil {
		return e.Sleep(ctx, d)
	}
	return ContextSleep(ctx, d)
}

func (e *Executor) maxAttempts() int {
	if e.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return e.MaxAttempts
}

func (e *Executor) idempotent(err error) bool {
	return err != nil && e.IsIdempotent != nil && e.IsIdempotent(err)
}

// Run menjalankan ops berurutan. Kegagalan satu operasi tidak menghentikan batch.
// ctx hanya dibatalkan saat bot shutdown; sisa operasi lalu dicatat gagal.
func (e *Executor) Run(ctx context.Context, ops []Operation) Summary {
	now := time.Now
	if e.Now != nil {
		now = e.Now
	}
	started := now()
	log := utils.GetBatchLogger()
	format := e.FormatLine
	if format == nil {
		format = DefaultLine
	}

	summary := Summary{Total: len(ops)}
	for i, op := range ops {
		var out Outcome
		if err := ctx.Err(); err != nil {
			out = Outcome{Operation: op, Prereq: PrereqNone, Err: err}
		} else {
			out = e.runOne(ctx, op)
		}

		summary.Attempts += out.Attempts
		if out.Succeeded {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, out)
		summary.Transcript = append(summary.Transcript, format(out))

		log.Progress(e.BatchID, i+1, len(ops), summary.Succeeded, summary.Failed)
		if e.Progress != nil {
			transcript := make([]string, len(summary.Transcript))
			copy(transcript, summary.Transcript)
			e.Progress(i+1, len(ops), transcript)
		}

		if i == len(ops)-1 || ctx.Err() != nil {
			continue
		}
		delay := e.OperationDelay
		if out.rateLimited(e.IsRateLimit) {
			log.Warn("%s: rate limit terdeteksi, cooldown %v", e.BatchID, e.RateLimitCooldown)
			delay = e.RateLimitCooldown
		}
		_ = e.sleep(ctx, delay)
	}

	summary.Duration = now().Sub(started)
	if e.Complete != nil {
		e.Complete(summary)
	}
	return summary
}

func (e *Executor) runOne(ctx context.Context, op Operation) Outcome {
	out := Outcome{Operation: op, Prereq: PrereqNone}
	log := utils.GetBatchLogger()

	if e.Prerequisite != nil {
		satisfied := false
		if e.Precheck != nil {
			ok, err := e.Precheck(ctx, op)
			if err != nil {
				log.Debug("%s: precheck %s di %s gagal: %v", e.BatchID, op.Target, op.GroupID, err)
			}
			satisfied = err == nil && ok
		}

		if satisfied {
			out.Prereq = PrereqSatisfied
		} else if err := e.Prerequisite(ctx, op); err != nil {
			if !e.idempotent(err) {
				out.Prereq = PrereqFailed
				out.Err = err
				return out
			}
			out.Prereq = PrereqAlready
		} else {
			out.Prereq = PrereqPerformed
			if e.PrerequisiteSettle > 0 {
				_ = e.sleep(ctx, e.PrerequisiteSettle)
			}
		}
	}

	max := e.maxAttempts()
	for attempt := 1; attempt <= max; attempt++ {
		out.Attempts = attempt
		err := e.Action(ctx, op)
		if err == nil {
			out.Succeeded = true
			out.Err = nil
			return out
		}
		if e.idempotent(err) {
			out.Succeeded = true
			out.AlreadyDone = true
			out.Err = nil
			return out
		}

		out.Err = err
		log.Attempt(op.GroupID, op.Target, attempt, max, err)
		if attempt < max {
			if serr := e.sleep(ctx, e.RetryDelay); serr != nil && errors.Is(serr, ctx.Err()) {
				return out
			}
		}
	}
	return out
}
