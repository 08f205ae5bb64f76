package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"inventory-analytics/config"
	"inventory-analytics/logger"
)

const WorkspaceCookieName = "inventory_workspace"

func StoreLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := logger.New(config.GetLogger().With(slog.String("request_id", uuid.NewString())))
		ctx, err := withLogger(req.Context(), log)
		if err != nil {
			fmt.Println("Error storing logger in context: " + err.Error())
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log := GetLoggerFromRequest(req)
				log.HTTPError(req, fmt.Sprintf("Panic recovered: %v", rec), slog.String("stack", string(debug.Stack())))
				WriteJsonError(w, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, req)
	})
}

// WebEndpointConfigMiddleware stores the config of the mux pattern that
// matched the request.
func WebEndpointConfigMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		endpointConfig, err := config.GetWebEndpointConfig(req.Pattern)
		if err != nil {
			log.HTTPWarning(req, "Error getting endpoint config for WebEndpointConfigMiddleware: "+err.Error())
			WriteJsonError(w, http.StatusNotFound)
			return
		}
		ctx, err := withWebEndpointConfig(req.Context(), endpointConfig)
		if err != nil {
			log.HTTPError(req, "Error storing endpoint config for WebEndpointConfigMiddleware in context: "+err.Error())
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func LimitRequestSizeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		endpointConfig, ok := GetWebEndpointConfigFromRequestContext(req)
		if !ok {
			log.HTTPError(req, "No endpoint config stored in context in LimitRequestSizeMiddleware")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		maxSize := endpointConfig.MaxBodyBytes
		if req.ContentLength > maxSize {
			log.HTTPWarning(req, "Request content length exceeds limit: "+fmt.Sprintf("%.2fMB", float64(req.ContentLength)/1e6)+" > "+fmt.Sprintf("%.2fMB", float64(maxSize)/1e6))
			WriteJsonError(w, http.StatusRequestEntityTooLarge)
			return
		}
		req.Body = http.MaxBytesReader(w, req.Body, maxSize)
		next.ServeHTTP(w, req)
	})
}

func StoreClientIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		ip, port, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			log.HTTPWarning(req, "Could not parse IP address in StoreClientIPMiddleware: "+err.Error())
			WriteJsonError(w, http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(port) == "" {
			log.HTTPWarning(req, "Empty port in RemoteAddr in StoreClientIPMiddleware")
			WriteJsonError(w, http.StatusBadRequest)
			return
		}

		ipValid, _, _ := checkValidIP(ip)
		if !ipValid {
			log.HTTPWarning(req, "Cannot store invalid IP address in context: "+ip)
			WriteJsonError(w, http.StatusBadRequest)
			return
		}

		ctx, err := withClientIP(req.Context(), ip)
		if err != nil {
			log.HTTPError(req, "Error storing IP address in context: "+err.Error())
			WriteJsonError(w, http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func writeRetryAfter(w http.ResponseWriter, retryAfter time.Duration) {
	seconds := int64(math.Ceil(retryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
}

func CheckIPBlockedMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		requestIP, ok := GetRequestIPFromRequestContext(req)
		if !ok {
			log.HTTPWarning(req, "No IP address stored in context")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		if banned, retryAfter := config.IsClientBanned(requestIP); banned {
			log.HTTPDebug(req, "Banned client attempted request: "+requestIP.String()+" (retry after "+retryAfter.String()+")")
			writeRetryAfter(w, retryAfter)
			WriteJsonError(w, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// RateLimitMiddleware charges the request to the limiter named by the
// endpoint config.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		requestIP, ok := GetRequestIPFromRequestContext(req)
		if !ok {
			log.HTTPWarning(req, "No IP address stored in context")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		endpointConfig, ok := GetWebEndpointConfigFromRequestContext(req)
		if !ok {
			log.HTTPError(req, "No endpoint config stored in context in RateLimitMiddleware")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}

		// IsClientRateLimited assigns a rate limiter to the client IP if not already present
		limited, retryAfter := config.IsClientRateLimited(endpointConfig.LimiterType, requestIP)
		if limited {
			log.HTTPDebug(req, "Client is rate limited: "+requestIP.String()+" (retry after "+retryAfter.String()+")")
			writeRetryAfter(w, retryAfter)
			WriteJsonError(w, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}

// RequestTimeoutMiddleware bounds the request context by the api or file
// timeout, depending on the endpoint type.
func RequestTimeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		endpointConfig, ok := GetWebEndpointConfigFromRequestContext(req)
		if !ok {
			log.HTTPError(req, "No endpoint config stored in context in RequestTimeoutMiddleware")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		timeout, err := config.GetRequestTimeout(endpointConfig.EndpointType)
		if err != nil {
			log.HTTPError(req, "Failed to get request timeout from config: "+err.Error())
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		ctx, cancel := context.WithTimeout(req.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

func HTTPMethodMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)

		validMethods := map[string]bool{
			http.MethodGet:    true,
			http.MethodPost:   true,
			http.MethodDelete: true,
		}
		if !validMethods[req.Method] {
			log.HTTPWarning(req, "Invalid request method: "+req.Method)
			WriteJsonError(w, http.StatusMethodNotAllowed)
			return
		}

		endpointConfig, ok := GetWebEndpointConfigFromRequestContext(req)
		if !ok {
			log.HTTPError(req, "Error getting endpoint config in HTTP method middleware")
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		allowedMethods, err := config.GetWebEndpointAllowedMethods(endpointConfig)
		if err != nil {
			log.HTTPError(req, "Error getting allowed methods in HTTP method middleware: "+err.Error())
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}
		if !slices.Contains(allowedMethods, req.Method) {
			log.HTTPInfo(req, "Method is not allowed for endpoint: "+req.Method)
			w.Header().Set("Allow", strings.Join(allowedMethods, ", "))
			WriteJsonError(w, http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, req)
	})
}

func CheckHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)

		for headerKey, headerValues := range req.Header {
			if strings.ContainsAny(headerKey, "\x00\r\n") {
				log.HTTPWarning(req, "CRLF or null byte in header key")
				WriteJsonError(w, http.StatusBadRequest)
				return
			}
			if len(headerKey) > 255 {
				log.HTTPWarning(req, "Header key too long: '"+headerKey+"' ("+strconv.Itoa(len(headerKey))+" bytes)")
				WriteJsonError(w, http.StatusBadRequest)
				return
			}
			for _, headerValue := range headerValues {
				if strings.ContainsAny(headerValue, "\x00\r\n") {
					log.HTTPWarning(req, "CRLF or null byte in header '"+headerKey+"'")
					WriteJsonError(w, http.StatusBadRequest)
					return
				}
				if len(headerValue) > 8192 {
					log.HTTPWarning(req, "Header value too long for '"+headerKey+"': "+fmt.Sprintf("%.2f", float64(len(headerValue))/1024)+" KB")
					WriteJsonError(w, http.StatusBadRequest)
					return
				}
			}
		}

		host := req.Host
		if strings.TrimSpace(host) == "" || len(host) > 255 || strings.ContainsAny(host, " <>\"'") {
			log.HTTPWarning(req, "Missing or invalid Host header")
			WriteJsonError(w, http.StatusBadRequest)
			return
		}

		// Bodies must be JSON or a multipart form
		if req.ContentLength != 0 && (req.Method == http.MethodPost || req.Method == http.MethodDelete) {
			contentType := strings.ToLower(strings.TrimSpace(req.Header.Get("Content-Type")))
			if len(contentType) > 256 {
				log.HTTPWarning(req, "Content-Type header is too long: "+strconv.Itoa(len(contentType))+" bytes")
				WriteJsonError(w, http.StatusBadRequest)
				return
			}
			if !strings.HasPrefix(contentType, "application/json") && !strings.HasPrefix(contentType, "multipart/form-data") {
				log.HTTPWarning(req, "Invalid Content-Type header: "+contentType)
				WriteJsonError(w, http.StatusUnsupportedMediaType)
				return
			}
		}

		if len(req.Header.Get("Cookie")) > 4096 {
			log.HTTPWarning(req, "Cookie header too large")
			WriteJsonError(w, http.StatusBadRequest)
			return
		}

		transferEncoding := req.Header.Get("Transfer-Encoding")
		if transferEncoding != "" && transferEncoding != "chunked" {
			log.HTTPWarning(req, "Suspicious Transfer-Encoding: '"+transferEncoding+"'")
			WriteJsonError(w, http.StatusBadRequest)
			return
		}

		if xForwardedFor := req.Header.Get("X-Forwarded-For"); xForwardedFor != "" {
			log.HTTPDebug(req, "X-Forwarded-For header present: "+xForwardedFor)
		}
		next.ServeHTTP(w, req)
	})
}

func SetHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)

		cors := http.NewCrossOriginProtection()
		if err := cors.Check(req); err != nil {
			log.HTTPWarning(req, "Cross-origin request blocked: "+err.Error())
			WriteJsonError(w, http.StatusForbidden)
			return
		}

		w.Header().Set("Vary", "Origin")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		if req.TLS != nil {
			w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains") // 2 years
		}
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Cross-Origin-Resource-Policy", "same-origin")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, private")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")
		w.Header().Set("Server", "")

		next.ServeHTTP(w, req)
	})
}

// WorkspaceMiddleware attaches the client's workspace, creating one and
// setting the cookie when the request has none or its workspace expired.
func WorkspaceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log := GetLoggerFromRequest(req)
		store, err := config.GetWorkspaces()
		if err != nil {
			log.HTTPError(req, "Cannot get workspace store: "+err.Error())
			WriteJsonError(w, http.StatusInternalServerError)
			return
		}

		now := time.Now()
		var workspace *config.Workspace
		if cookie, err := req.Cookie(WorkspaceCookieName); err == nil {
			if id, err := uuid.Parse(cookie.Value); err == nil {
				workspace, _ = store.Get(id, now)
			} else {
				log.HTTPDebug(req, "Invalid workspace cookie: "+err.Error())
			}
		}
		if workspace == nil {
			workspace = store.Create(now)
			log.HTTPDebug(req, "Created workspace "+workspace.ID.String())
			http.SetCookie(w, &http.Cookie{
				Name:     WorkspaceCookieName,
				Value:    workspace.ID.String(),
				Path:     "/",
				HttpOnly: true,
				Secure:   req.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		next.ServeHTTP(w, req.WithContext(WithWorkspace(req.Context(), workspace)))
	})
}
