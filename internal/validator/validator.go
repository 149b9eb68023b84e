package validator

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/Veraticus/recollect/internal/llmcontext"
	"github.com/Veraticus/recollect/internal/model"
)

// ConfidenceThreshold is the lowest confidence shown to the user.
const ConfidenceThreshold = 0.75

// claimPattern flags replies that describe records of a kind the context
// did not contain.
type claimPattern struct {
	re   *regexp.Regexp
	kind model.Kind
}

var claimPatterns = []claimPattern{
	{kind: model.KindNote, re: regexp.MustCompile(`(?i)\bnotes?\b.*\b(titled|called|named)\b`)},
	{kind: model.KindNote, re: regexp.MustCompile(`(?i)\b(in|from) your notes\b`)},
	{kind: model.KindTask, re: regexp.MustCompile(`(?i)\byour (schedule|events|calendar)\b`)},
	{kind: model.KindTask, re: regexp.MustCompile(`(?i)\byou have (a|an|\d+) (meeting|appointment|event|task)s?\b`)},
	{kind: model.KindLocation, re: regexp.MustCompile(`(?i)\byour saved (places?|locations?|spots?)\b`)},
	{kind: model.KindEmail, re: regexp.MustCompile(`(?i)\b(in your inbox|your emails?)\b`)},
	{kind: model.KindEmail, re: regexp.MustCompile(`(?i)\b(an?|\d+) emails? from\b`)},
	{kind: model.KindReceipt, re: regexp.MustCompile(`(?i)\byou spent \$\d`)},
	{kind: model.KindReceipt, re: regexp.MustCompile(`(?i)\byour (receipts?|purchases?)\b`)},
}

// affirmativeNotesClaim matches statements that notes exist, such as
// "You have 2 notes" or "I found a note". Zero counts are not claims.
var affirmativeNotesClaim = regexp.MustCompile(
	`(?i)\b(you have|you've got|there (are|is)|i found|found)\s+([1-9]\d*|a|an|one|two|three|four|five|several|some|many|a few)\s+(\w+\s+)?notes?\b`)

var kindNames = map[model.Kind]string{
	model.KindNote:     "notes",
	model.KindTask:     "tasks",
	model.KindLocation: "locations",
	model.KindEmail:    "emails",
	model.KindReceipt:  "receipts",
}

// Config configures a Validator.
type Config struct {
	Clock    func() time.Time
	Location *time.Location
}

// Validator checks model replies against the context they were built from.
type Validator struct {
	clock    func() time.Time
	location *time.Location
}

// New creates a Validator using the wall clock and local time zone.
func New() *Validator {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a Validator with explicit clock and location.
func NewWithConfig(cfg Config) *Validator {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	return &Validator{clock: cfg.Clock, location: cfg.Location}
}

// Validate runs the ordered checks and returns exactly one outcome. It
// never fails: a nil reply is low confidence and a nil context is empty.
func (v *Validator) Validate(resp *LLMResponse, fc *model.FilteredContext) Result {
	if resp == nil {
		return Result{Status: StatusLowConfidence, Reason: "no response to validate"}
	}
	if fc == nil {
		fc = &model.FilteredContext{}
	}

	if math.IsNaN(resp.Confidence) || resp.Confidence < ConfidenceThreshold {
		return Result{
			Status:   StatusLowConfidence,
			Response: resp.Response,
			Reason:   fmt.Sprintf("confidence %g is below %g", resp.Confidence, ConfidenceThreshold),
		}
	}

	if resp.NeedsClarification {
		return Result{
			Status:    StatusNeedsClarification,
			Response:  resp.Response,
			Questions: append([]string{}, resp.ClarifyingQuestions...),
		}
	}

	var issues []Issue
	issues = append(issues, checkReferences(resp.DataReferences, fc)...)
	issues = append(issues, checkClaims(resp.Response, fc)...)
	issues = append(issues, v.checkTemporal(resp.Response, fc)...)
	issues = append(issues, checkContradictions(resp.Response, fc)...)

	var warnings []Issue
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return Result{
				Status: StatusHallucination,
				Reason: issue.Message,
				Issues: issues,
			}
		}
		warnings = append(warnings, issue)
	}

	if len(warnings) > 0 {
		return Result{
			Status:   StatusPartiallyValid,
			Response: resp.Response,
			Issues:   warnings,
		}
	}

	return Result{Status: StatusValid, Response: resp.Response}
}

func checkReferences(refs *DataReferences, fc *model.FilteredContext) []Issue {
	if refs == nil {
		return nil
	}

	groups := []struct {
		known map[string]struct{}
		label string
		ids   []string
	}{
		{label: "note", ids: refs.NoteIDs, known: fc.NoteIDs()},
		{label: "task", ids: refs.TaskIDs, known: fc.TaskIDs()},
		{label: "location", ids: refs.LocationIDs, known: fc.LocationIDs()},
		{label: "email", ids: refs.EmailIDs, known: fc.EmailIDs()},
		{label: "receipt", ids: refs.ReceiptIDs, known: fc.ReceiptIDs()},
	}

	var issues []Issue
	for _, g := range groups {
		for _, id := range g.ids {
			if _, ok := g.known[id]; ok {
				continue
			}
			issues = append(issues, Issue{
				Severity:   SeverityCritical,
				Message:    fmt.Sprintf("Referenced %s '%s' not found", g.label, id),
				Suggestion: "Only cite records present in the supplied context",
			})
		}
	}
	return issues
}

func checkClaims(text string, fc *model.FilteredContext) []Issue {
	var issues []Issue
	flagged := make(map[model.Kind]bool)
	for _, p := range claimPatterns {
		if flagged[p.kind] || fc.Count(p.kind) > 0 {
			continue
		}
		if p.re.MatchString(text) {
			flagged[p.kind] = true
			issues = append(issues, Issue{
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("Response mentions %s but none were provided in context", kindNames[p.kind]),
				Suggestion: fmt.Sprintf("State that no matching %s were found", kindNames[p.kind]),
			})
		}
	}
	return issues
}

func (v *Validator) checkTemporal(text string, fc *model.FilteredContext) []Issue {
	dr := fc.Metadata.Intent.DateRange
	if dr == nil || llmcontext.NormalizePeriod(dr.PeriodLabel) != llmcontext.PeriodToday {
		return nil
	}

	now := fc.Metadata.Timestamp
	if now.IsZero() {
		now = v.clock()
	}
	tomorrow := now.In(v.location).AddDate(0, 0, 1)

	for _, layout := range []string{"January 2, 2006", "Jan 2, 2006", "2006-01-02", "1/2/2006"} {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(tomorrow.Format(layout)) + `\b`)
		if re.MatchString(text) {
			return []Issue{{
				Severity:   SeverityWarning,
				Message:    fmt.Sprintf("Response mentions tomorrow's date (%s) for a question about today", tomorrow.Format("Jan 2, 2006")),
				Suggestion: "Check that the answer describes today",
			}}
		}
	}
	return nil
}

func checkContradictions(text string, fc *model.FilteredContext) []Issue {
	if fc.Count(model.KindNote) > 0 || !affirmativeNotesClaim.MatchString(text) {
		return nil
	}
	return []Issue{{
		Severity:   SeverityCritical,
		Message:    "Response claims notes that are not present in context",
		Suggestion: "Say that no matching notes were found",
	}}
}
