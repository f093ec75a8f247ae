// Package sloghooks reports syncache hook events through log/slog.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/syncache"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	SelfHealEvery  uint64
	CoalescedEvery uint64
	// Optional key redactor. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	selfHealCtr  atomic.Uint64
	coalescedCtr atomic.Uint64
}

var _ syncache.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) Coalesced(locator string, waiters int) {
	if h.l == nil || !sample(h.opts.CoalescedEvery, &h.coalescedCtr) {
		return
	}
	h.l.Debug("syncache.coalesced",
		"locator", locator,
		"waiters", waiters)
}

func (h *Hooks) FetchFailed(locator string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("syncache.fetch_failed",
		"locator", locator,
		"err", err)
}

func (h *Hooks) InvalidateFailed(key string, err error) {
	if h.l == nil {
		return
	}
	h.l.Error("syncache.invalidate_failed",
		"key", h.redact(key),
		"err", err)
}

func (h *Hooks) SelfHeal(key, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("syncache.self_heal",
		"key", h.redact(key),
		"reason", reason)
}

func (h *Hooks) StaleFillSkipped(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("syncache.stale_fill_skipped",
		"key", h.redact(key))
}

func (h *Hooks) ProviderSetRejected(key string) {
	if h.l == nil {
		return
	}
	h.l.Warn("syncache.provider_set_rejected",
		"key", h.redact(key))
}

func (h *Hooks) Evicted(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("syncache.evicted",
		"key", h.redact(key))
}

func (h *Hooks) DuplicateCompletion(method syncache.Method) {
	if h.l == nil {
		return
	}
	h.l.Warn("syncache.duplicate_completion",
		"method", string(method))
}
