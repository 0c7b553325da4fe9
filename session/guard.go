// Package session implements the anti-abuse guard around the public forms:
// a form timer, a per-session submission quota and a one-shot confirmation
// stash, all backed by Redis.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CookieName carries the anonymous session identifier on the public site.
const CookieName = "vc_session"

const (
	// DelaiMinimum is the floor under which a submission is considered
	// automated.
	DelaiMinimum = 3 * time.Second
	// DelaiMaximum is the ceiling after which the form must be reloaded.
	DelaiMaximum = 30 * time.Minute
	// MaxSoumissions bounds successful submissions per session and IP.
	MaxSoumissions = 5
	// FenetreSoumissions is the quota window.
	FenetreSoumissions = time.Hour
)

var (
	ErrSoumissionTropRapide = errors.New("form submitted too fast")
	ErrFormulaireExpire     = errors.New("form expired, reload required")
	ErrTropDeSoumissions    = errors.New("submission quota reached for this session")
)

type Guard struct {
	client *redis.Client
	logger *slog.Logger
}

func NewGuard(client *redis.Client, logger *slog.Logger) *Guard {
	return &Guard{client: client, logger: logger}
}

// NewSessionID returns a fresh random identifier for the session cookie.
func NewSessionID() (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(raw), nil
}

func timerKey(sessionID, form string) string {
	return "session:" + sessionID + ":timer:" + form
}

func quotaKey(sessionID, ip string) string {
	return "session:" + sessionID + ":quota:" + ip
}

func confirmationKey(sessionID, form string) string {
	return "session:" + sessionID + ":confirmation:" + form
}

// MarkFormStarted records when the named form was served to this session.
func (g *Guard) MarkFormStarted(ctx context.Context, sessionID, form string, now time.Time) error {
	key := timerKey(sessionID, form)
	if err := g.client.Set(ctx, key, strconv.FormatInt(now.UnixMilli(), 10), DelaiMaximum).Err(); err != nil {
		return fmt.Errorf("store form timer: %w", err)
	}
	return nil
}

// ClearFormTimer drops the timer after a successful submission so the next
// one requires reopening the form.
func (g *Guard) ClearFormTimer(ctx context.Context, sessionID, form string) error {
	if err := g.client.Del(ctx, timerKey(sessionID, form)).Err(); err != nil {
		return fmt.Errorf("clear form timer: %w", err)
	}
	return nil
}

// CheckTiming verifies the elapsed time since the form was served. Under
// DelaiMinimum the submission is rejected as automated; past DelaiMaximum
// (or with the timer gone) the form has expired. A stored value that does
// not parse is dropped silently and the check is skipped, so a corrupted
// session never locks a human out.
func (g *Guard) CheckTiming(ctx context.Context, sessionID, form string, now time.Time) error {
	key := timerKey(sessionID, form)
	raw, err := g.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrFormulaireExpire
	}
	if err != nil {
		return fmt.Errorf("read form timer: %w", err)
	}

	millis, parseErr := strconv.ParseInt(raw, 10, 64)
	if parseErr != nil {
		g.logger.WarnContext(ctx, "malformed form timer, resetting",
			slog.String("session_id", sessionID),
			slog.String("form", form))
		g.client.Del(ctx, key)
		return nil
	}

	elapsed := now.Sub(time.UnixMilli(millis))
	if elapsed < DelaiMinimum {
		return ErrSoumissionTropRapide
	}
	if elapsed > DelaiMaximum {
		return ErrFormulaireExpire
	}
	return nil
}

// CheckQuota rejects once the session and IP pair has reached its
// successful-submission quota.
func (g *Guard) CheckQuota(ctx context.Context, sessionID, ip string) error {
	count, err := g.client.Get(ctx, quotaKey(sessionID, ip)).Int()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read submission quota: %w", err)
	}
	if count >= MaxSoumissions {
		return ErrTropDeSoumissions
	}
	return nil
}

// RecordSubmission increments the quota counter after a successful
// submission. Failed submissions never consume quota.
func (g *Guard) RecordSubmission(ctx context.Context, sessionID, ip string) error {
	key := quotaKey(sessionID, ip)
	pipe := g.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, FenetreSoumissions)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// SuiviCandidatures is how long a visitor can track and withdraw the
// candidatures submitted from their browser.
const SuiviCandidatures = 30 * 24 * time.Hour

func candidaturesKey(sessionID string) string {
	return "session:" + sessionID + ":candidatures"
}

// RememberCandidature ties a submitted candidature to the session so the
// visitor can follow and withdraw it without an account.
func (g *Guard) RememberCandidature(ctx context.Context, sessionID string, candidatureID int) error {
	key := candidaturesKey(sessionID)
	pipe := g.client.TxPipeline()
	pipe.SAdd(ctx, key, candidatureID)
	pipe.Expire(ctx, key, SuiviCandidatures)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remember candidature: %w", err)
	}
	return nil
}

// RememberedCandidatures returns the candidature IDs submitted from this
// session. Entries that no longer parse are skipped.
func (g *Guard) RememberedCandidatures(ctx context.Context, sessionID string) ([]int, error) {
	raw, err := g.client.SMembers(ctx, candidaturesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("list remembered candidatures: %w", err)
	}
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		if id, parseErr := strconv.Atoi(v); parseErr == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// StashConfirmation stores a confirmation payload readable exactly once,
// so a page refresh cannot replay the success screen.
func (g *Guard) StashConfirmation(ctx context.Context, sessionID, form string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}
	if err := g.client.Set(ctx, confirmationKey(sessionID, form), data, DelaiMaximum).Err(); err != nil {
		return fmt.Errorf("stash confirmation: %w", err)
	}
	return nil
}

// PopConfirmation returns the stashed payload and deletes it. The boolean
// reports whether a confirmation was pending.
func (g *Guard) PopConfirmation(ctx context.Context, sessionID, form string, dest any) (bool, error) {
	key := confirmationKey(sessionID, form)
	data, err := g.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pop confirmation: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("unmarshal confirmation: %w", err)
	}
	return true, nil
}
