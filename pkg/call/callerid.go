package call

import (
	"strings"

	"github.com/emiago/sipgo/sip"
)

// CallerInfo данные вызывающего абонента
type CallerInfo struct {
	Name   string `json:"name,omitempty"`
	Number string `json:"number,omitempty"`
	URI    string `json:"uri,omitempty"`
}

// Empty true если данных нет
func (c CallerInfo) Empty() bool {
	return c.Name == "" && c.Number == "" && c.URI == ""
}

// ParseCallerInfo разбирает значение From или P-Asserted-Identity:
//   - "Alice" <sip:5001@example.com>
//   - Bob <tel:+15551234567>
//   - sip:5001@example.com
func ParseCallerInfo(value string) CallerInfo {
	value = strings.TrimSpace(value)
	if value == "" {
		return CallerInfo{}
	}

	var info CallerInfo
	uriStr := value
	if start := strings.IndexByte(value, '<'); start != -1 {
		if end := strings.IndexByte(value[start:], '>'); end != -1 {
			uriStr = value[start+1 : start+end]
			info.Name = strings.Trim(strings.TrimSpace(value[:start]), `"`)
		}
	} else if semi := strings.IndexByte(value, ';'); semi != -1 {
		// параметры заголовка без угловых скобок
		uriStr = value[:semi]
	}
	info.URI = uriStr

	if strings.HasPrefix(strings.ToLower(uriStr), telPrefix) {
		number := uriStr[len(telPrefix):]
		if semi := strings.IndexByte(number, ';'); semi != -1 {
			number = number[:semi]
		}
		info.Number = number
		return info
	}

	var uri sip.Uri
	if err := sip.ParseUri(uriStr, &uri); err == nil {
		info.Number = uri.User
		if uri.User == "" {
			info.Number = uri.Host
		}
	}
	return info
}
