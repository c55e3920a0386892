package ai

import "context"

// Part is one content unit of a prompt: either text or binary media.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart wraps a string as a prompt part.
func TextPart(s string) Part {
	return Part{Text: s}
}

// MediaPart wraps binary media as a prompt part.
func MediaPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// IsMedia reports whether the part carries binary media rather than text.
func (p Part) IsMedia() bool {
	return p.MIMEType != ""
}

// Usage carries the token counts a backend reported for one call.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Total returns prompt plus completion tokens.
func (u Usage) Total() int64 {
	return u.PromptTokens + u.CompletionTokens
}

// Response is the normalized result of one backend generation call.
// BlockReason is set when the backend refused the prompt or response on
// content-policy grounds; usage metadata may still be present in that case.
type Response struct {
	Text        string
	Usage       *Usage
	BlockReason string
}

// GenerateOptions tune one generation request.
type GenerateOptions struct {
	// JSONOutput requires the backend to return a JSON object. Roles whose
	// binding does not declare structured-output support are skipped for
	// requests that set this.
	JSONOutput bool
	// RoleOverride forces the preferred role for this call, overriding the
	// task type's default.
	RoleOverride ModelRole
	// MaxOutputTokens caps the completion length when positive.
	MaxOutputTokens int64
	// Temperature overrides the backend default when non-nil.
	Temperature *float64
}

// Backend is a live handle to one concrete generative model.
type Backend interface {
	// Name returns the concrete model identifier, used for usage attribution.
	Name() string
	// Generate issues one generation request. Capacity refusals are returned
	// as errors satisfying IsCapacityError; content-policy refusals either as
	// a *BlockedError or as a Response with BlockReason set.
	Generate(ctx context.Context, parts []Part, opts GenerateOptions) (*Response, error)
}
