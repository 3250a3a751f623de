package minihttpie

import (
	"testing"

	"github.com/npc-z/minihttpie/exchange"
	"github.com/npc-z/minihttpie/input"
	"github.com/pkg/errors"
)

func TestExitStatus(t *testing.T) {
	testCases := []struct {
		title    string
		err      error
		expected int
	}{
		{
			title:    "Success",
			err:      nil,
			expected: ExitStatusSuccess,
		},
		{
			title:    "Usage error",
			err:      input.NewUsageError("URL is required"),
			expected: ExitStatusUsageError,
		},
		{
			title:    "Build error",
			err:      errors.WithStack(&input.ItemError{Item: "a:={", Reason: "value is not valid JSON"}),
			expected: ExitStatusBuildError,
		},
		{
			title:    "Transport error",
			err:      &exchange.TransportError{Kind: exchange.ConnectionFailed, URL: "http://example.com", Err: errors.New("connection refused")},
			expected: ExitStatusTransportError,
		},
		{
			title:    "Wrapped transport error",
			err:      errors.Wrap(&exchange.TransportError{Kind: exchange.Timeout, URL: "http://example.com", Err: errors.New("deadline exceeded")}, "sending request"),
			expected: ExitStatusTransportError,
		},
		{
			title:    "Other error",
			err:      errors.New("something else"),
			expected: ExitStatusBuildError,
		},
	}
	for _, tt := range testCases {
		t.Run(tt.title, func(t *testing.T) {
			if actual := ExitStatus(tt.err); actual != tt.expected {
				t.Errorf("unexpected exit status: expected=%d, actual=%d", tt.expected, actual)
			}
		})
	}
}
