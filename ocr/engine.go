package ocr

import (
	"context"
	"time"
)

// MarkLowConfidence flags tokens below the threshold in place and returns the
// slice for chaining. Tokens are never dropped, only flagged.
func MarkLowConfidence(tokens []RecognizedToken, threshold float64) []RecognizedToken {
	for i := range tokens {
		tokens[i].LowConfidence = tokens[i].Confidence < threshold
	}
	return tokens
}

// NopEngine recognizes nothing: every call succeeds with zero tokens. Useful
// as a placeholder when no engine is installed.
type NopEngine struct{}

func (NopEngine) Name() string { return "nop" }

func (NopEngine) Recognize(ctx context.Context, req Request) (RecognitionResult, error) {
	if err := ctx.Err(); err != nil {
		return RecognitionResult{}, err
	}
	res := RecognitionResult{Status: StatusSuccess, CompletedAt: time.Now()}
	if req.Image != nil {
		res.Key = req.Image.Key
	}
	return res, nil
}
