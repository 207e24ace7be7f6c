// Package extractor pulls structured quote requests out of assistant
// replies. The assistant is prompted to emit a machine-readable tag when
// it has gathered enough trip details; this package parses the tag, prices
// the trip, records it, and rewrites the reply into customer-facing text.
package extractor

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// tagPattern matches the structured tag embedded in an assistant reply.
// The payload group is non-greedy so trailing prose after the tag is
// never swallowed.
var tagPattern = regexp.MustCompile(`\[QUOTE_REQUEST:(\{.*?\})\]`)

// Request is the payload the assistant emits once it has gathered the
// trip details.
type Request struct {
	Service     string `json:"service"`
	Pickup      string `json:"pickup"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Passengers  int    `json:"passengers"`
	Return      bool   `json:"return"`
	ReturnDate  string `json:"return_date"`
	ReturnTime  string `json:"return_time"`
	Airport     string `json:"airport"`
}

// ExtractionError reports a tag whose payload could not be turned into a
// priceable request. Its message is for logs only and must never be
// echoed to the customer.
type ExtractionError struct {
	Field  string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extracting %s: %s", e.Field, e.Reason)
}

// serviceAliases maps the service names the assistant tends to produce
// onto pricing service IDs.
var serviceAliases = map[string]string{
	"private-hire":     "private-hire",
	"private_hire":     "private-hire",
	"private hire":     "private-hire",
	"minibus":          "private-hire",
	"coach":            "private-hire",
	"airport":          "airport",
	"airport-transfer": "airport",
	"airport_transfer": "airport",
	"airport transfer": "airport",
}

// Find reports whether text carries a quote tag, returning the parsed
// request and the tag's location for replacement.
func Find(text string) (Request, bool, error) {
	m := tagPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Request{}, false, nil
	}
	payload := text[m[2]:m[3]]
	var req Request
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return Request{}, true, &ExtractionError{Field: "payload", Reason: err.Error()}
	}
	return req, true, nil
}

// stripTag removes every tag occurrence, used when extraction fails and
// the raw tag must not leak to the customer.
func stripTag(text string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(text, ""))
}

// replaceTag substitutes the first tag occurrence with the rendered quote
// text and removes any further occurrences.
func replaceTag(text, rendered string) string {
	first := true
	out := tagPattern.ReplaceAllStringFunc(text, func(string) string {
		if first {
			first = false
			return rendered
		}
		return ""
	})
	return strings.TrimSpace(out)
}

// PassengerBand maps a passenger count onto the pricing band answer.
func PassengerBand(n int) (string, error) {
	switch {
	case n >= 1 && n <= 8:
		return "1-8", nil
	case n >= 9 && n <= 16:
		return "9-16", nil
	case n >= 17 && n <= 24:
		return "17-24", nil
	default:
		return "", &ExtractionError{Field: "passengers", Reason: fmt.Sprintf("count %d outside 1-24", n)}
	}
}

// classifyReturn derives the return-type answer from the request's return
// flag and dates.
func classifyReturn(req Request) (string, error) {
	if !req.Return {
		return "one-way", nil
	}
	if req.ReturnDate == "" || req.ReturnDate == req.Date {
		return "same-day", nil
	}
	out, err1 := time.Parse("2006-01-02", req.Date)
	back, err2 := time.Parse("2006-01-02", req.ReturnDate)
	if err1 != nil || err2 != nil {
		// Unparseable but differing dates still read as an overnight
		// return trip.
		return "different-day", nil
	}
	if back.Before(out) {
		return "", &ExtractionError{Field: "return_date", Reason: "return precedes outbound"}
	}
	return "different-day", nil
}

// Normalize validates a request and resolves it to a pricing service plus
// answers.
func Normalize(req Request) (service string, answers map[string]string, err error) {
	service, ok := serviceAliases[strings.ToLower(strings.TrimSpace(req.Service))]
	if !ok {
		return "", nil, &ExtractionError{Field: "service", Reason: fmt.Sprintf("unrecognized service %q", req.Service)}
	}

	band, err := PassengerBand(req.Passengers)
	if err != nil {
		return "", nil, err
	}
	returnType, err := classifyReturn(req)
	if err != nil {
		return "", nil, err
	}

	answers = map[string]string{
		"passengers": band,
		"returnType": returnType,
	}
	if service == "airport" {
		code := strings.ToUpper(strings.TrimSpace(req.Airport))
		if code == "" {
			return "", nil, &ExtractionError{Field: "airport", Reason: "airport transfer without airport code"}
		}
		answers["airport"] = code
	}
	return service, answers, nil
}
