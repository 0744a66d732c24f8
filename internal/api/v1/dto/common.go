package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// MessageResponseDTO is the body of simple acknowledgements and errors.
type MessageResponseDTO struct {
	Message string `json:"message"`
}

// ErrorResponseDTO is returned for failed requests.
type ErrorResponseDTO struct {
	Message       string            `json:"message"`
	Error         string            `json:"error,omitempty"`
	Errors        map[string]string `json:"errors,omitempty"`
	MissingFields []string          `json:"missingFields,omitempty"`
}

// FlexInt accepts a JSON number or a numeric string, as sent by HTML forms.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		*f = FlexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexInt(n)
	return nil
}
