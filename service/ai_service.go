package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"fintrack/domain"
	"fintrack/observability"
)

const (
	DefaultAIModel   = "gemini-2.5-flash"
	aiRequestTimeout = 30 * time.Second

	AdviceSourceModel    = "model"
	AdviceSourceFallback = "fallback"
)

const advisorInstruction = `You are a personal finance coach. You explain debt payoff plans in plain,
encouraging language, quote the exact figures you are given, and finish with one practical tip.
Answer in 3 to 4 sentences.`

// contentGenerator is the part of genai.Models the advisor needs.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type AIService struct {
	models   contentGenerator
	model    string
	currency string
	metrics  *observability.Metrics
}

// NewAIService connects to Gemini when apiKey is set. Without a key the
// service still works and answers with a fixed explanation.
func NewAIService(ctx context.Context, apiKey, model, currency string, metrics *observability.Metrics) (*AIService, error) {
	if model == "" {
		model = DefaultAIModel
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	s := &AIService{model: model, currency: currency, metrics: metrics}
	if apiKey == "" {
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	s.models = client.Models
	return s, nil
}

func (s *AIService) Enabled() bool {
	return s.models != nil
}

// DebtAdvice explains a payoff projection. It reports which source produced
// the text; model failures fall back to the fixed explanation.
func (s *AIService) DebtAdvice(
	ctx context.Context,
	input domain.SimulationInput,
	result domain.SimulationResult,
) (string, string) {
	if !s.Enabled() {
		s.count(AdviceSourceFallback)
		return s.fallbackAdvice(input, result), AdviceSourceFallback
	}

	ctx, cancel := context.WithTimeout(ctx, aiRequestTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: advisorInstruction}}},
		MaxOutputTokens:   300,
	}
	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(s.advicePrompt(input, result)), config)
	if err != nil {
		log.Printf("Error calling AI service for debt advice: %v", err)
		s.count(AdviceSourceFallback)
		return s.fallbackAdvice(input, result), AdviceSourceFallback
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		log.Printf("Error calling AI service for debt advice: empty response")
		s.count(AdviceSourceFallback)
		return s.fallbackAdvice(input, result), AdviceSourceFallback
	}

	s.count(AdviceSourceModel)
	return text, AdviceSourceModel
}

func (s *AIService) advicePrompt(input domain.SimulationInput, result domain.SimulationResult) string {
	source := "chosen by the user"
	if result.PaymentSource == domain.PaymentSourceDefault {
		source = "suggested by the planner"
	}
	return fmt.Sprintf(`Explain this debt payoff plan.

- Debt: %s
- Annual interest rate: %s%%
- Monthly payment (%s): %s
- Months to pay off: %d (%.1f years)
- Total interest paid: %s

Say whether raising the monthly payment would meaningfully shorten the plan.`,
		FormatMoney(input.DebtAmount, s.currency),
		input.AnnualInterestRatePercent.String(),
		source,
		FormatMoney(result.MonthlyPayment, s.currency),
		result.Months, float64(result.Months)/12.0,
		FormatMoney(result.TotalInterest, s.currency),
	)
}

func (s *AIService) fallbackAdvice(input domain.SimulationInput, result domain.SimulationResult) string {
	tip := "Paying even a little more each month shortens the plan and cuts the interest you pay."
	if result.TotalInterest.GreaterThan(input.DebtAmount.Div(decimal.NewFromInt(4))) {
		tip = "Interest is a large share of this plan; a higher payment or a lower-rate refinance would save a lot."
	}
	return fmt.Sprintf("Paying %s a month clears %s in %d %s, with %s of interest along the way. %s",
		FormatMoney(result.MonthlyPayment, s.currency),
		FormatMoney(input.DebtAmount, s.currency),
		result.Months, pluralMonths(result.Months),
		FormatMoney(result.TotalInterest, s.currency),
		tip,
	)
}

func (s *AIService) count(source string) {
	if s.metrics != nil {
		s.metrics.AdviceRequests.WithLabelValues(source).Inc()
	}
}
