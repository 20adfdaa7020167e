package mobius

import (
	"net/url"
	"strings"
)

const callingPath = "calling/web/"

// ServerURL базовый адрес сервера Mobius вида <host>/calling/web/.
// Адрес, уже оканчивающийся на calling/web/, возвращается как есть.
func ServerURL(host string) string {
	base := withSlash(host)
	if strings.HasSuffix(base, callingPath) {
		return base
	}
	return base + callingPath
}

// ServerURLs применяет ServerURL к списку
func ServerURLs(hosts []string) []string {
	out := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, ServerURL(h))
		}
	}
	return out
}

// DeviceURL адрес регистрации устройства
func DeviceURL(server string) string {
	return withSlash(server) + "device"
}

// DeviceDeleteURL адрес удаления регистрации
func DeviceDeleteURL(server, deviceID string) string {
	return withSlash(server) + "devices/" + url.PathEscape(deviceID)
}

// StatusURL адрес keepalive зарегистрированного устройства
func StatusURL(deviceURI string) string {
	return strings.TrimSuffix(deviceURI, "/") + "/status"
}

// ValidServer проверяет, что адрес сервера абсолютный http(s) URL
func ValidServer(server string) bool {
	u, err := url.Parse(server)
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host != ""
}

func withSlash(s string) string {
	if strings.HasSuffix(s, "/") {
		return s
	}
	return s + "/"
}
