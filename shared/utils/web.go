package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/ecomm-dev/accounts/shared/api"
	"github.com/ecomm-dev/accounts/shared/errors"
	"github.com/ecomm-dev/accounts/shared/logger"
	"github.com/ecomm-dev/accounts/shared/middleware/metrics"
)

// maxBodySize bounds request bodies read by guards and handlers.
const maxBodySize = 1 << 20

// WriteJSON writes env with env.Status as the HTTP status.
func WriteJSON(w http.ResponseWriter, env api.Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		body, _ = json.Marshal(api.Failure(errors.Unknown("ENC-1", err)))
		env.Status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status)
	w.Write(body)
}

// WriteError maps err to an error envelope. Anything that is not an
// *errors.AppError is reported as an unknown error. Unknown errors are
// recorded in the incident log with the client address.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.Unknown("UNKNOWN", err)
	}
	if appErr.Kind == errors.KindUnknown {
		ip, ipErr := GetIP(r)
		if ipErr != nil {
			ip = r.RemoteAddr
		}
		logger.Incident(ip, appErr.Tag(), appErr.Err)
	}
	metrics.ObserveError(appErr.Code)
	WriteJSON(w, api.Failure(appErr))
}

func GetIP(r *http.Request) (string, error) {
	//Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}

	//Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP := net.ParseIP(ip)
		if netIP != nil {
			return ip, nil
		}
	}

	//Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return "", err
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip, nil
	}
	return "", fmt.Errorf("no valid ip found")
}

// Decode reads a JSON body into body.
func Decode(r io.Reader, body any) error {
	if err := json.NewDecoder(io.LimitReader(r, maxBodySize)).Decode(body); err != nil {
		return fmt.Errorf("body is invalid json: %w", err)
	}
	return nil
}

// PeekBody reads the request body and puts it back so the next stage can
// read it again.
func PeekBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
