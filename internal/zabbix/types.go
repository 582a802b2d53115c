package zabbix

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// request is the JSON-RPC envelope sent to the server.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      int         `json:"id"`
	Auth    string      `json:"auth,omitempty"`
}

// response is the JSON-RPC envelope returned by the server. Exactly one
// of Result and Error is set.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *APIError       `json:"error"`
	ID      int             `json:"id"`
}

// APIError is the error object of a JSON-RPC response.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

func (e *APIError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("%s %s (code %d)", e.Message, e.Data, e.Code)
	}
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// IsAuthFailure reports whether the error indicates bad credentials or
// an expired/terminated session. Zabbix signals these through the
// message text rather than a dedicated code, so this matches the known
// phrasings.
func (e *APIError) IsAuthFailure() bool {
	text := strings.ToLower(e.Message + " " + e.Data)
	for _, marker := range []string{
		"re-login",
		"not authorised",
		"not authorized",
		"session terminated",
		"incorrect or expired",
		"login name or password is incorrect",
	} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// Int64 decodes a JSON value that may be either a number or a numeric
// string. Zabbix encodes severities, clocks and flags as strings; test
// fixtures and some proxies use bare numbers.
type Int64 int64

func (n *Int64) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(data, `"`))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("numeric value expected, got %s", data)
	}
	*n = Int64(v)
	return nil
}

// Bool decodes a JSON value that may be a bool, a number, or a "0"/"1"
// string, which is how Zabbix encodes flags.
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	s := strings.ToLower(string(bytes.Trim(data, `"`)))
	switch s {
	case "1", "true":
		*b = true
	case "0", "false", "", "null":
		*b = false
	default:
		return fmt.Errorf("boolean value expected, got %s", data)
	}
	return nil
}

// Problem is one active problem record as returned by problem.get.
type Problem struct {
	EventID      string `json:"eventid"`
	Name         string `json:"name"`
	Severity     Int64  `json:"severity"`
	Clock        Int64  `json:"clock"`
	ObjectID     string `json:"objectid"`
	Acknowledged Bool   `json:"acknowledged"`
	Suppressed   Bool   `json:"suppressed"`
}

// Host is one host record as returned by host.get.
type Host struct {
	HostID string `json:"hostid"`
	Name   string `json:"name"`
}

// ProblemFilter controls which problems the server includes.
type ProblemFilter struct {
	// ShowAcknowledged includes problems already acknowledged by an
	// operator. When false, only unacknowledged problems are returned.
	ShowAcknowledged bool
	// ShowSuppressed includes problems on hosts in maintenance.
	ShowSuppressed bool
}
