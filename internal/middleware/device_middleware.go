package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	DeviceIDKey  contextKey = "deviceID"
	DeviceHeader            = "X-Device-ID"
)

// DeviceMiddleware records the calling device so services can skip it when
// broadcasting. Requests without the header are served as device "unknown".
func DeviceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			deviceID := strings.TrimSpace(r.Header.Get(DeviceHeader))
			if deviceID == "" {
				deviceID = r.URL.Query().Get("device_id")
			}
			if deviceID == "" {
				deviceID = "unknown"
			}

			ctx := context.WithValue(r.Context(), DeviceIDKey, deviceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetDeviceID(r *http.Request) string {
	deviceID, ok := r.Context().Value(DeviceIDKey).(string)
	if !ok {
		return ""
	}
	return deviceID
}
