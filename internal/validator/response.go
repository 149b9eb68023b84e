// Package validator decodes model replies and checks them against the
// context they were generated from.
package validator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/recollect/internal/common"
)

// DataReferences lists the record ids a reply claims to rely on.
type DataReferences struct {
	NoteIDs     []string `json:"note_ids,omitempty"`
	LocationIDs []string `json:"location_ids,omitempty"`
	TaskIDs     []string `json:"task_ids,omitempty"`
	EmailIDs    []string `json:"email_ids,omitempty"`
	ReceiptIDs  []string `json:"receipt_ids,omitempty"`
}

// LLMResponse is the structured reply expected from the model.
type LLMResponse struct {
	DataReferences      *DataReferences `json:"data_references,omitempty"`
	Response            string          `json:"response"`
	ClarifyingQuestions []string        `json:"clarifying_questions"`
	Confidence          float64         `json:"confidence"`
	NeedsClarification  bool            `json:"needs_clarification"`
}

// DecodeResponse parses a raw model reply, tolerating markdown code fences.
// Failures are retryable and wrap common.ErrResponseDecode.
func DecodeResponse(raw []byte) (*LLMResponse, error) {
	cleaned := strings.TrimSpace(common.StripCodeFence(string(raw)))
	if cleaned == "" {
		return nil, common.NewRetryableError(fmt.Errorf("%w: empty reply", common.ErrResponseDecode))
	}

	var resp LLMResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return nil, common.NewRetryableError(fmt.Errorf("%w: %w", common.ErrResponseDecode, err))
	}

	return &resp, nil
}
