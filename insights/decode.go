package insights

import (
	"encoding/json"
	"errors"
	"strings"
)

// decodeModelJSON parses a model reply into v. Replies are normally the bare
// JSON document, but models occasionally pad it with prose or fences; when a
// straight parse fails, the outermost braced region is tried before giving
// up.
func decodeModelJSON(reply string, v any) error {
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return errors.New("model reply is empty")
	}
	if json.Unmarshal([]byte(reply), v) == nil {
		return nil
	}

	open := strings.IndexByte(reply, '{')
	last := strings.LastIndexByte(reply, '}')
	if open < 0 || last <= open {
		return errors.New("model reply contains no JSON object")
	}
	if err := json.Unmarshal([]byte(reply[open:last+1]), v); err != nil {
		return errors.Join(errors.New("model reply is not valid JSON"), err)
	}
	return nil
}
