package gateway

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

/* Scenario rules drive the mock transaction endpoint: an ordered list of
 * guard/failure pairs evaluated top-down, first match wins. The built-in
 * rules mirror the provider's documented failure modes; extra rules can
 * be prepended from a YAML file to stage new failures without a rebuild
 */

// Failure is the structured response a matched rule produces.
type Failure struct {
	HTTPStatus int
	ErrorCode  string
	Message    string
}

// Rule pairs a guard predicate with the failure it produces.
type Rule struct {
	Name  string
	Match func(TransactionRequest) bool
	Fail  Failure
}

// DefaultTransactionRules returns the built-in scenarios in evaluation
// order. The blocked-user check deliberately precedes the maintenance
// amount: a blocked user stays banned even when asking for "503".
func DefaultTransactionRules() []Rule {
	return []Rule{
		{
			Name: "blocked user",
			Match: func(req TransactionRequest) bool {
				return req.UserID == "BLOCKED_USER"
			},
			Fail: Failure{
				HTTPStatus: 403,
				ErrorCode:  "USER_BANNED",
				Message:    "User is banned from transactions",
			},
		},
		{
			Name: "maintenance amount",
			Match: func(req TransactionRequest) bool {
				// String comparison on purpose: only the literal JSON
				// string "503" stages the outage
				s, ok := req.Amount.(string)
				return ok && s == "503"
			},
			Fail: Failure{
				HTTPStatus: 503,
				ErrorCode:  "SERVICE_UNAVAILABLE",
				Message:    "Service temporarily unavailable, please try again later",
			},
		},
		{
			Name: "non-positive amount",
			Match: func(req TransactionRequest) bool {
				v, ok := req.amountValue()
				return ok && v <= 0
			},
			Fail: Failure{
				HTTPStatus: 400,
				ErrorCode:  "INVALID_AMOUNT",
				Message:    "Amount must be greater than zero",
			},
		},
		{
			Name: "missing fields",
			Match: func(req TransactionRequest) bool {
				if req.ProcessToken != "" {
					return false
				}
				return !req.amountPresent() || req.UserID == ""
			},
			Fail: Failure{
				HTTPStatus: 400,
				ErrorCode:  "MISSING_FIELDS",
				Message:    "Either process_token or both amount and user_id are required",
			},
		},
	}
}

// RuleConfig represents a single rule in the YAML file
type RuleConfig struct {
	Name      string `yaml:"name"`
	Field     string `yaml:"field"`
	Equals    string `yaml:"equals"`
	Status    int    `yaml:"status"`
	ErrorCode string `yaml:"error_code"`
	Message   string `yaml:"message"`
}

// RulesFile represents the structure of scenarios.yaml
type RulesFile struct {
	Scenarios []RuleConfig `yaml:"scenarios"`
}

// LoadRules reads extra scenario rules from a YAML file. The returned
// rules are meant to be prepended to the built-in list.
func LoadRules(filePath string) ([]Rule, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading scenarios file: %w", err)
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scenarios YAML: %w", err)
	}

	rules := make([]Rule, 0, len(file.Scenarios))
	for _, rc := range file.Scenarios {
		rule, err := rc.compile()
		if err != nil {
			return nil, fmt.Errorf("compiling scenario %q: %w", rc.Name, err)
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func (rc RuleConfig) compile() (Rule, error) {
	if rc.Field == "" {
		return Rule{}, fmt.Errorf("field cannot be empty")
	}
	if rc.Status < 400 || rc.Status > 599 {
		return Rule{}, fmt.Errorf("status must be a 4xx or 5xx code (got %d)", rc.Status)
	}

	field, equals := rc.Field, rc.Equals
	var match func(TransactionRequest) bool
	switch field {
	case "user_id":
		match = func(req TransactionRequest) bool { return req.UserID == equals }
	case "amount":
		match = func(req TransactionRequest) bool { return req.amountString() == equals }
	case "process_token":
		match = func(req TransactionRequest) bool { return req.ProcessToken == equals }
	case "full_name":
		match = func(req TransactionRequest) bool { return req.FullName == equals }
	case "external_id":
		match = func(req TransactionRequest) bool { return req.ExternalID == equals }
	default:
		return Rule{}, fmt.Errorf("unknown field: %s", field)
	}

	return Rule{
		Name:  rc.Name,
		Match: match,
		Fail: Failure{
			HTTPStatus: rc.Status,
			ErrorCode:  rc.ErrorCode,
			Message:    rc.Message,
		},
	}, nil
}

// TransactionRequest is the decoded create-transaction body. Amount stays
// untyped because the scenarios distinguish the string "503" from the
// number 503.
type TransactionRequest struct {
	UserID       string `json:"user_id"`
	Amount       any    `json:"amount"`
	ProcessToken string `json:"process_token"`
	FullName     string `json:"full_name"`
	ExternalID   string `json:"external_id"`
	CallbackURL  string `json:"callback_url"`
}

func (req TransactionRequest) amountPresent() bool {
	return req.amountString() != ""
}

// amountString renders the amount the way it arrived on the wire.
func (req TransactionRequest) amountString() string {
	switch v := req.Amount.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// amountValue parses the amount numerically; ok is false when the field
// is absent or not a number.
func (req TransactionRequest) amountValue() (float64, bool) {
	switch v := req.Amount.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
