// Copyright (c) 2025-2026 Serranito Society contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	maxLockout         = 24 * time.Hour
	loginSweepInterval = 10 * time.Minute
	maxTrackedIPs      = 10000
)

// LoginProtection guards the shared community password. Login requests
// are rate limited per client IP, and wrong passwords are counted three
// ways: per email, per client IP and across all callers. Any budget that
// runs out locks the matching logins; each further lockout of the same
// key doubles, up to a day. Since any email may log in with the shared
// password, the IP and global budgets are what bound guessing.
type LoginProtection struct {
	ips *limiterCache[string]
	cfg LoginProtectionConfig

	mu       sync.Mutex
	failures map[string]*failureRecord

	stop     chan struct{}
	stopOnce sync.Once
}

type failureRecord struct {
	count       int
	windowStart time.Time
	lockedUntil time.Time
	lockouts    int
}

// globalFailureKey counts wrong passwords from every caller.
const globalFailureKey = "global"

func emailKey(email string) string { return "email:" + email }
func ipKey(ip string) string       { return "ip:" + ip }

// LoginProtectionConfig holds the limits. Zero values take the defaults
// from DefaultLoginProtectionConfig.
type LoginProtectionConfig struct {
	IPRateLimit             float64 // login requests per second per IP
	IPBurst                 int
	MaxFailedAttempts       int           // per email
	IPMaxFailedAttempts     int           // per client IP, whatever the email
	GlobalMaxFailedAttempts int           // across all callers
	LockoutDuration         time.Duration // first lockout
	AttemptWindow           time.Duration // failures older than this are forgotten
}

// DefaultLoginProtectionConfig returns the production limits.
func DefaultLoginProtectionConfig() LoginProtectionConfig {
	return LoginProtectionConfig{
		IPRateLimit:             0.5,
		IPBurst:                 5,
		MaxFailedAttempts:       5,
		IPMaxFailedAttempts:     20,
		GlobalMaxFailedAttempts: 100,
		LockoutDuration:         15 * time.Minute,
		AttemptWindow:           15 * time.Minute,
	}
}

func (c LoginProtectionConfig) withDefaults() LoginProtectionConfig {
	def := DefaultLoginProtectionConfig()
	if c.IPRateLimit <= 0 {
		c.IPRateLimit = def.IPRateLimit
	}
	if c.IPBurst <= 0 {
		c.IPBurst = def.IPBurst
	}
	if c.MaxFailedAttempts <= 0 {
		c.MaxFailedAttempts = def.MaxFailedAttempts
	}
	if c.IPMaxFailedAttempts <= 0 {
		c.IPMaxFailedAttempts = def.IPMaxFailedAttempts
	}
	if c.GlobalMaxFailedAttempts <= 0 {
		c.GlobalMaxFailedAttempts = def.GlobalMaxFailedAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = def.LockoutDuration
	}
	if c.AttemptWindow <= 0 {
		c.AttemptWindow = def.AttemptWindow
	}
	return c
}

// NewLoginProtection starts a background sweeper; call Close to stop it.
func NewLoginProtection(cfg LoginProtectionConfig) *LoginProtection {
	cfg = cfg.withDefaults()
	lp := &LoginProtection{
		ips:      newLimiterCache[string](cfg.IPRateLimit, cfg.IPBurst),
		cfg:      cfg,
		failures: make(map[string]*failureRecord),
		stop:     make(chan struct{}),
	}
	go lp.sweepLoop()
	return lp
}

// Close stops the sweeper. It is safe to call more than once.
func (lp *LoginProtection) Close() {
	lp.stopOnce.Do(func() { close(lp.stop) })
}

// Locked returns how long a login for email from ip stays refused, or
// zero.
func (lp *LoginProtection) Locked(email, ip string) time.Duration {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	var longest time.Duration
	for _, key := range []string{emailKey(email), ipKey(ip), globalFailureKey} {
		rec, ok := lp.failures[key]
		if !ok {
			continue
		}
		longest = max(longest, time.Until(rec.lockedUntil))
	}
	return max(longest, 0)
}

// Fail records a wrong password for email from ip. It returns the longest
// lockout this failure triggers, or zero.
func (lp *LoginProtection) Fail(email, ip string) time.Duration {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	now := time.Now()
	d := lp.failLocked(emailKey(email), lp.cfg.MaxFailedAttempts, now)
	d = max(d, lp.failLocked(ipKey(ip), lp.cfg.IPMaxFailedAttempts, now))
	d = max(d, lp.failLocked(globalFailureKey, lp.cfg.GlobalMaxFailedAttempts, now))
	return d
}

func (lp *LoginProtection) failLocked(key string, limit int, now time.Time) time.Duration {
	rec, ok := lp.failures[key]
	if !ok {
		rec = &failureRecord{windowStart: now}
		lp.failures[key] = rec
	}
	if now.Sub(rec.windowStart) > lp.cfg.AttemptWindow {
		rec.count = 0
		rec.windowStart = now
	}

	rec.count++
	if rec.count < limit {
		return 0
	}

	d := lp.cfg.LockoutDuration
	for i := 0; i < rec.lockouts && d < maxLockout; i++ {
		d *= 2
	}
	d = min(d, maxLockout)
	rec.lockedUntil = now.Add(d)
	rec.lockouts++
	rec.count = 0

	slog.Warn("login locked after failed attempts",
		"category", "auth", "key", key, "lockouts", rec.lockouts, "duration", d.String())
	return d
}

// Succeed forgets the failures recorded for email and ip. The global
// count only decays with the window.
func (lp *LoginProtection) Succeed(email, ip string) {
	lp.mu.Lock()
	delete(lp.failures, emailKey(email))
	delete(lp.failures, ipKey(ip))
	lp.mu.Unlock()
}

// Remaining returns the wrong passwords email may still submit before the
// next lockout of that email.
func (lp *LoginProtection) Remaining(email string) int {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	rec, ok := lp.failures[emailKey(email)]
	if !ok || time.Since(rec.windowStart) > lp.cfg.AttemptWindow {
		return lp.cfg.MaxFailedAttempts
	}
	return max(lp.cfg.MaxFailedAttempts-rec.count, 0)
}

func (lp *LoginProtection) sweepLoop() {
	ticker := time.NewTicker(loginSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lp.sweep(time.Now())
		case <-lp.stop:
			return
		}
	}
}

// sweep drops records that are neither locked nor inside the window.
func (lp *LoginProtection) sweep(now time.Time) {
	if lp.ips.clearIfExceeds(maxTrackedIPs) {
		slog.Info("cleared login IP limiters", "category", "auth")
	}

	lp.mu.Lock()
	defer lp.mu.Unlock()
	for key, rec := range lp.failures {
		if now.After(rec.lockedUntil) && now.Sub(rec.windowStart) > lp.cfg.AttemptWindow {
			delete(lp.failures, key)
		}
	}
}

// Middleware rate limits POST requests per client IP.
func (lp *LoginProtection) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodPost {
				ip := ClientIP(r)
				if !lp.ips.get(ip).Allow() {
					slog.Warn("login rate limit exceeded", "category", "auth", "ip", ip)
					writeJSONError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
