package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
)

const noSourceNotice = "Je n'ai pas trouvé de source fiable dans ma base documentaire pour cette question."

// GenerateOptions bound the tier chain.
type GenerateOptions struct {
	TierTimeout    time.Duration
	MinAnswerChars int
}

// RemoteTier pairs a backend with the label recorded in answers. The label
// stays with the backend, so a chain missing its primary still reports the
// secondary tier as secondary_llm.
type RemoteTier struct {
	Backend ports.GenerationBackend
	Label   domain.Backend
}

type GenerateUseCase struct {
	remote []RemoteTier
	local  ports.GenerationBackend
	opts   GenerateOptions
}

func NewGenerateUseCase(remote []RemoteTier, local ports.GenerationBackend, opts GenerateOptions) *GenerateUseCase {
	if opts.TierTimeout <= 0 {
		opts.TierTimeout = 30 * time.Second
	}
	if opts.MinAnswerChars <= 0 {
		opts.MinAnswerChars = 30
	}
	return &GenerateUseCase{
		remote: remote,
		local:  local,
		opts:   opts,
	}
}

// Generate walks the fixed tier chain until a backend produces an acceptable
// answer. Each remote tier gets exactly one bounded attempt; any failure,
// timeout or too-short answer falls through to the next tier. The local
// template tier terminates the chain and never fails.
func (uc *GenerateUseCase) Generate(ctx context.Context, pc domain.PromptContext, allowRemote bool) (*domain.GenerationResult, error) {
	start := time.Now()

	if allowRemote {
		for _, tier := range uc.remote {
			text, err := uc.generateRemote(ctx, tier.Backend, pc)
			if err != nil {
				continue
			}
			return &domain.GenerationResult{
				AnswerText:     uc.finalize(text, pc),
				Backend:        tier.Label,
				GenerationTime: time.Since(start),
			}, nil
		}
	}

	text, err := uc.local.Generate(ctx, pc)
	if err != nil {
		// The template tier never fails; reaching this is a defect.
		return nil, domain.WrapError(domain.ErrGenerationBackend, "template answer", err)
	}
	return &domain.GenerationResult{
		AnswerText:     text,
		Backend:        domain.BackendTemplate,
		GenerationTime: time.Since(start),
	}, nil
}

func (uc *GenerateUseCase) generateRemote(ctx context.Context, backend ports.GenerationBackend, pc domain.PromptContext) (string, error) {
	tierCtx, cancel := context.WithTimeout(ctx, uc.opts.TierTimeout)
	defer cancel()

	text, err := backend.Generate(tierCtx, pc)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < uc.opts.MinAnswerChars {
		return "", fmt.Errorf("%s: answer shorter than %d chars", backend.Name(), uc.opts.MinAnswerChars)
	}
	return text, nil
}

// finalize enforces the grounding guarantee on remote answers: without
// retrieved context a non-greeting answer must state that no reliable source
// was found. The template tier produces that statement itself.
func (uc *GenerateUseCase) finalize(text string, pc domain.PromptContext) string {
	if pc.Grounded || IsGreeting(pc.Question) {
		return text
	}
	return noSourceNotice + "\n\n" + text
}
