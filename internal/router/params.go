package router

import (
	"strings"

	"github.com/tidwall/gjson"
)

// resolveID pulls a room id out of a payload that is either a bare id
// ("42" or 42) or an object carrying it under field ({"chatId":"42"}).
func resolveID(payload []byte, field string) string {
	if len(payload) == 0 || !gjson.ValidBytes(payload) {
		return ""
	}

	value := gjson.ParseBytes(payload)
	switch value.Type {
	case gjson.String, gjson.Number:
		return strings.TrimSpace(value.String())
	case gjson.JSON:
		if !value.IsObject() {
			return ""
		}
		id := value.Get(field)
		if id.Type != gjson.String && id.Type != gjson.Number {
			return ""
		}
		return strings.TrimSpace(id.String())
	default:
		return ""
	}
}
