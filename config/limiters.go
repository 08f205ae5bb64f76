package config

import (
	"errors"
	"net/netip"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTimeout = 3 * time.Minute

type RateLimiter struct {
	Type      string
	ClientMap sync.Map
	Rate      float64
	Burst     int
}

type ClientLimiter struct {
	Limiter  *rate.Limiter
	LastSeen time.Time
}

type BanList struct {
	bannedClients sync.Map
	banPeriod     time.Duration
}

func NewRateLimiter(limiterType string, ratePerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{Type: limiterType, Rate: ratePerSecond, Burst: burst}
}

func GetLimiter(limiterType string) *RateLimiter {
	appState, err := GetAppState()
	if err != nil {
		return nil
	}

	switch limiterType {
	case "file":
		return appState.fileLimiter.Load()
	case "web":
		return appState.webServerLimiter.Load()
	case "api":
		return appState.apiLimiter.Load()
	default:
		return nil
	}
}

func (rateLimiter *RateLimiter) Get(ipAddr netip.Addr) *rate.Limiter {
	if rateLimiter == nil {
		return nil
	}
	if ipKey, ok := rateLimiter.ClientMap.Load(ipAddr); ok {
		if clientLimiter, ok2 := ipKey.(ClientLimiter); ok2 && clientLimiter.Limiter != nil {
			// Update last seen time
			clientLimiter.LastSeen = time.Now()
			rateLimiter.ClientMap.Store(ipAddr, clientLimiter)
			return clientLimiter.Limiter
		}
	}
	limiter := rate.NewLimiter(rate.Limit(rateLimiter.Rate), rateLimiter.Burst)
	actual, _ := rateLimiter.ClientMap.LoadOrStore(ipAddr, ClientLimiter{Limiter: limiter, LastSeen: time.Now()})
	if clientLimiter, ok := actual.(ClientLimiter); ok && clientLimiter.Limiter != nil {
		return clientLimiter.Limiter
	}
	return limiter
}

// cleanup drops clients idle for longer than maxIdle.
func (rateLimiter *RateLimiter) cleanup(now time.Time, maxIdle time.Duration) int {
	if rateLimiter == nil {
		return 0
	}
	var count int
	rateLimiter.ClientMap.Range(func(key, value any) bool {
		clientLimiter, ok := value.(ClientLimiter)
		if !ok {
			rateLimiter.ClientMap.Delete(key)
			return true
		}
		if now.Sub(clientLimiter.LastSeen) > maxIdle {
			rateLimiter.ClientMap.Delete(key)
			count++
		}
		return true
	})
	return count
}

func (banList *BanList) Ban(ip netip.Addr) {
	if banList == nil || ip == (netip.Addr{}) {
		return
	}
	banList.bannedClients.Store(ip, time.Now())
}

// BannedFor returns how much longer ip stays banned. Expired bans are removed.
func (banList *BanList) BannedFor(ip netip.Addr, now time.Time) (time.Duration, bool) {
	if banList == nil {
		return 0, false
	}
	value, ok := banList.bannedClients.Load(ip)
	if !ok {
		return 0, false
	}
	bannedAt, ok := value.(time.Time)
	if !ok {
		banList.bannedClients.Delete(ip)
		return 0, false
	}
	bannedUntil := bannedAt.Add(banList.banPeriod)
	if now.Before(bannedUntil) {
		return bannedUntil.Sub(now), true
	}
	banList.bannedClients.Delete(ip)
	return 0, false
}

func (banList *BanList) cleanup(now time.Time) int {
	if banList == nil {
		return 0
	}
	var count int
	banList.bannedClients.Range(func(key, value any) bool {
		bannedAt, ok := value.(time.Time)
		if !ok || !now.Before(bannedAt.Add(banList.banPeriod)) {
			banList.bannedClients.Delete(key)
			count++
		}
		return true
	})
	return count
}

// IsClientBanned reports whether ip is serving out a rate limit ban.
func IsClientBanned(ip netip.Addr) (bool, time.Duration) {
	appState, err := GetAppState()
	if err != nil || ip == (netip.Addr{}) {
		return false, 0
	}
	retryAfter, banned := appState.banList.Load().BannedFor(ip, time.Now())
	return banned, retryAfter
}

func IsClientRateLimited(limiterType string, ip netip.Addr) (limited bool, retryAfter time.Duration) {
	appState, err := GetAppState()
	if err != nil || ip == (netip.Addr{}) {
		return false, 0
	}

	banList := appState.banList.Load()
	if retryAfter, banned := banList.BannedFor(ip, time.Now()); banned {
		return true, retryAfter
	}

	rateLimiter := GetLimiter(limiterType)
	if rateLimiter == nil {
		return false, 0
	}

	// Allow() fails once the client has spent its burst.
	if !rateLimiter.Get(ip).Allow() {
		banList.Ban(ip)
		return true, banList.banPeriod
	}
	return false, 0
}

func CleanupOldLimiterEntries() (int64, error) {
	appState, err := GetAppState()
	if err != nil {
		return 0, errors.New("app state is not initialized")
	}
	now := time.Now()

	var count int
	count += appState.webServerLimiter.Load().cleanup(now, limiterIdleTimeout)
	count += appState.apiLimiter.Load().cleanup(now, limiterIdleTimeout)
	count += appState.fileLimiter.Load().cleanup(now, limiterIdleTimeout)
	return int64(count), nil
}

func CleanupBlockedIPs() (int64, error) {
	appState, err := GetAppState()
	if err != nil {
		return 0, errors.New("app state is not initialized")
	}
	return int64(appState.banList.Load().cleanup(time.Now())), nil
}
