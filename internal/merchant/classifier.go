package merchant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/recollect/internal/common"
	"github.com/Veraticus/recollect/internal/model"
)

// Completer sends a prompt to a language model and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Classifier classifies merchants the built-in table does not know.
type Classifier interface {
	Classify(ctx context.Context, names []string) (map[string]model.MerchantProfile, error)
}

const classifierSystemPrompt = `You classify merchants that appear on personal receipts.
For each merchant name, give the kind of business and up to five products or services it typically sells.
Respond with JSON only, in this exact shape:
{"merchants": [{"name": "<name as given>", "type": "<business type>", "products": ["<product>", "..."]}]}
Use lowercase for type and products. If you do not recognize a merchant, use an empty type and an empty products list.`

// LLMClassifier classifies merchants with a language model.
type LLMClassifier struct {
	model Completer
}

// NewLLMClassifier creates a classifier backed by model.
func NewLLMClassifier(model Completer) *LLMClassifier {
	return &LLMClassifier{model: model}
}

type classificationReply struct {
	Merchants []struct {
		Name     string   `json:"name"`
		Type     string   `json:"type"`
		Products []string `json:"products"`
	} `json:"merchants"`
}

// Classify asks the model to classify names. Merchants the model does not
// recognize are omitted from the result.
func (c *LLMClassifier) Classify(ctx context.Context, names []string) (map[string]model.MerchantProfile, error) {
	if len(names) == 0 {
		return map[string]model.MerchantProfile{}, nil
	}

	var prompt strings.Builder
	prompt.WriteString("Classify these merchants:\n")
	for _, name := range names {
		fmt.Fprintf(&prompt, "- %s\n", name)
	}

	content, err := c.model.Complete(ctx, classifierSystemPrompt, prompt.String())
	if err != nil {
		return nil, fmt.Errorf("failed to classify merchants: %w", err)
	}

	var reply classificationReply
	if err := json.Unmarshal([]byte(common.StripCodeFence(content)), &reply); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrResponseDecode, err)
	}

	requested := make(map[string]string, len(names))
	for _, name := range names {
		requested[cacheKey(name)] = name
	}

	out := make(map[string]model.MerchantProfile, len(reply.Merchants))
	for _, m := range reply.Merchants {
		name, ok := requested[cacheKey(m.Name)]
		if !ok {
			continue
		}
		profile := model.MerchantProfile{
			Name:     name,
			Type:     strings.ToLower(strings.TrimSpace(m.Type)),
			Products: normalizeProducts(m.Products),
			Source:   model.SourceAuto,
		}
		if profile.IsUnknown() {
			continue
		}
		out[name] = profile
	}
	return out, nil
}

func normalizeProducts(products []string) []string {
	out := make([]string, 0, len(products))
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
