package call

import (
	"regexp"
	"strings"
	"unicode"
)

// Type тип адреса назначения
type Type string

const (
	TypeURI Type = "uri"
	TypeTel Type = "tel"
)

const telPrefix = "tel:"

// Address нормализованный адрес назначения
type Address struct {
	Type    Type   `json:"type"`
	Address string `json:"address"`
}

// Number адрес без префикса tel:
func (a Address) Number() string {
	return strings.TrimPrefix(a.Address, telPrefix)
}

func (a Address) String() string {
	return a.Address
}

var validNumber = regexp.MustCompile(`^\+?[0-9*#]+$`)

// stripSeparators удаляет пробельные символы Unicode и дефисы
func stripSeparators(raw string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
}

// Normalize приводит набранную строку к виду tel:<номер>.
// Пробелы и дефисы удаляются, допускаются цифры, * и #, а также ведущий +.
func Normalize(raw string, t Type) (Address, bool) {
	if t != TypeURI && t != TypeTel {
		return Address{}, false
	}

	number := stripSeparators(raw)
	number = strings.TrimPrefix(number, telPrefix)
	if !validNumber.MatchString(number) {
		return Address{}, false
	}

	return Address{Type: t, Address: telPrefix + number}, true
}
