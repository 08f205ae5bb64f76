package middleware

import (
	"bufio"
	"io"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"unicode/utf8"

	json "github.com/goccy/go-json"

	"inventory-analytics/config"
	"inventory-analytics/types"
)

const jsonContentType = "application/json; charset=utf-8"

// SetEndpointContentType sets the Content-Type registered for the matched
// endpoint. Requests without an endpoint config get JSON.
func SetEndpointContentType(w http.ResponseWriter, req *http.Request) {
	contentType := jsonContentType
	if endpointConfig, ok := GetWebEndpointConfigFromRequestContext(req); ok {
		if registered, err := config.GetWebEndpointContentType(endpointConfig); err == nil {
			contentType = registered
		} else {
			GetLoggerFromRequest(req).HTTPWarning(req, "No content type for endpoint, using JSON: "+err.Error())
		}
	}
	w.Header().Set("Content-Type", contentType)
}

// WriteJson writes value as the response body. A Content-Type already set by
// SetEndpointContentType is kept.
func WriteJson(w http.ResponseWriter, status int, value any) error {
	body, err := json.Marshal(value)
	if err != nil {
		WriteJsonError(w, http.StatusInternalServerError)
		return err
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", jsonContentType)
	}
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// WriteJsonError writes {error: <status text>} with status.
func WriteJsonError(w http.ResponseWriter, status int) {
	WriteJsonErrorMessage(w, status, http.StatusText(status))
}

func WriteJsonErrorMessage(w http.ResponseWriter, status int, message string) {
	body, err := json.Marshal(types.ErrorResponse{Error: message})
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", jsonContentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func checkValidIP(s string) (isValid bool, isLoopback bool, isLocal bool) {
	log := config.GetLogger()
	maxStringSize := int64(128)
	maxCharSize := int(4)

	ipBytes := &io.LimitedReader{
		R: strings.NewReader(s),
		N: maxStringSize,
	}
	reader := bufio.NewReader(ipBytes)

	var totalBytes int64
	var b strings.Builder
	for {
		char, charSize, err := reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn("read error in checkValidIP: " + err.Error())
			return false, false, false
		}
		if charSize > maxCharSize {
			log.Warn("IP address contains an invalid Unicode character")
			return false, false, false
		}
		if char == utf8.RuneError && charSize == 1 {
			return false, false, false
		}
		totalBytes += int64(charSize)
		if totalBytes > maxStringSize {
			log.Warn("IP length exceeded " + strconv.FormatInt(maxStringSize, 10) + " bytes")
			return false, false, false
		}
		b.WriteRune(char)
	}

	ip := strings.TrimSpace(b.String())
	if ip == "" {
		return false, false, false
	}

	parsedIP, err := netip.ParseAddr(ip)
	if err != nil {
		return false, false, false
	}
	parsedIP = parsedIP.Unmap()

	if parsedIP.IsUnspecified() || !parsedIP.IsValid() {
		log.Warn("IP address is unspecified or invalid: " + parsedIP.String())
		return false, false, false
	}

	if parsedIP.IsInterfaceLocalMulticast() || parsedIP.IsLinkLocalMulticast() || parsedIP.IsMulticast() {
		log.Warn("IP address is multicast: " + parsedIP.String())
		return false, false, false
	}

	return true, parsedIP.IsLoopback(), parsedIP.IsPrivate()
}
