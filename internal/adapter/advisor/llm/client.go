package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"npcforge/internal/app/ports"
	"npcforge/internal/domain/npc"
)

const (
	BackendOpenAI  = "openai"
	BackendOllama  = "ollama"
	BackendTextGen = "textgen"

	defaultTimeout     = 5 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 500 * time.Millisecond
	maxJitter          = 500 * time.Millisecond

	modelConfidence = 0.7
)

type Config struct {
	Endpoint     string
	Backend      string
	Model        string
	APIKey       string
	Timeout      time.Duration
	MaxAttempts  int
	BackoffBase  time.Duration
	CacheSize    int
	CacheTTL     time.Duration
	ProbeTTL     time.Duration
	BreakerLimit int
	BreakerReset time.Duration
}

// Advisor asks an external text-generation backend for a decision. All
// failure modes degrade to the caller-supplied fallback; callers never see
// an error. Breaker, cache and probe state are owned by this instance and
// are process-local.
type Advisor struct {
	cfg     Config
	client  *http.Client
	breaker *circuitBreaker
	cache   *responseCache
	probe   *livenessProbe
	metrics ports.DecisionMetrics
	logger  *slog.Logger
	rand    *rand.Rand
	sleep   func(ctx context.Context, d time.Duration)
}

func NewAdvisor(cfg Config, metrics ports.DecisionMetrics, logger *slog.Logger, rng *rand.Rand) *Advisor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	client := &http.Client{Timeout: cfg.Timeout}
	return &Advisor{
		cfg:     cfg,
		client:  client,
		breaker: newCircuitBreaker(cfg.BreakerLimit, cfg.BreakerReset, nil),
		cache:   newResponseCache(cfg.CacheSize, cfg.CacheTTL, nil),
		probe:   newLivenessProbe(client, cfg.Endpoint, cfg.ProbeTTL, nil),
		metrics: metrics,
		logger:  logger,
		rand:    rng,
		sleep:   sleepCtx,
	}
}

// IsCircuitBreakerOpen is exposed for operational introspection.
func (a *Advisor) IsCircuitBreakerOpen() bool {
	return a.breaker.IsOpen()
}

func (a *Advisor) GetDecision(ctx context.Context, cfg npc.Config, state npc.StateSummary, fallback npc.Decision) npc.Decision {
	if !a.breaker.Allow() {
		fallback.Source = npc.SourceFallback
		return fallback
	}
	if !a.probe.Alive(ctx) {
		fallback.Source = npc.SourceFallback
		return fallback
	}

	prompt := a.buildPrompt(cfg, state)
	key := promptHash(prompt)
	if cached, ok := a.cache.Get(key); ok {
		return cached
	}

	text, err := a.generate(ctx, prompt)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("model call failed, using rule fallback",
				"player_id", cfg.PlayerID,
				"backend", a.cfg.Backend,
				"err", err)
		}
		fallback.Source = npc.SourceFallback
		return fallback
	}
	a.breaker.RecordSuccess()

	decision := a.parseDecision(text)
	a.cache.Put(key, decision)
	return decision
}

// generate retries with exponential backoff plus jitter. Each attempt has
// its own hard timeout independent of the retry envelope.
func (a *Advisor) generate(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < a.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := a.cfg.BackoffBase*(1<<uint(attempt)) + time.Duration(a.rand.Int63n(int64(maxJitter)))
			a.sleep(ctx, delay)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}

		text, err := a.callBackend(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		a.breaker.RecordFailure()
		if a.metrics != nil && a.breaker.IsOpen() {
			a.metrics.RecordBreakerTransition(a.breaker.State())
		}
	}
	return "", fmt.Errorf("%w: %v", ports.ErrModelUnavailable, lastErr)
}

func (a *Advisor) callBackend(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	url, payload, err := a.requestFor(prompt)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("backend returned status %d", resp.StatusCode)
	}
	return a.extractText(body)
}

// requestFor shapes the payload per backend; responses are normalized back
// to one text field by extractText.
func (a *Advisor) requestFor(prompt string) (string, []byte, error) {
	switch a.cfg.Backend {
	case BackendOpenAI:
		payload, err := json.Marshal(map[string]any{
			"model":       a.cfg.Model,
			"messages":    []map[string]string{{"role": "user", "content": prompt}},
			"temperature": 0.7,
		})
		return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/v1/chat/completions", payload, err
	case BackendOllama:
		payload, err := json.Marshal(map[string]any{
			"model":  a.cfg.Model,
			"prompt": prompt,
			"stream": false,
		})
		return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/api/generate", payload, err
	case BackendTextGen:
		payload, err := json.Marshal(map[string]any{
			"prompt":         prompt,
			"max_new_tokens": 256,
		})
		return strings.TrimSuffix(a.cfg.Endpoint, "/") + "/api/v1/generate", payload, err
	default:
		return "", nil, fmt.Errorf("unknown model backend %q", a.cfg.Backend)
	}
}

func (a *Advisor) extractText(body []byte) (string, error) {
	switch a.cfg.Backend {
	case BackendOpenAI:
		var out struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", err
		}
		if len(out.Choices) == 0 {
			return "", fmt.Errorf("empty choices in response")
		}
		return out.Choices[0].Message.Content, nil
	case BackendOllama:
		var out struct {
			Response string `json:"response"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", err
		}
		return out.Response, nil
	case BackendTextGen:
		var out struct {
			Results []struct {
				Text string `json:"text"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &out); err != nil {
			return "", err
		}
		if len(out.Results) == 0 {
			return "", fmt.Errorf("empty results in response")
		}
		return out.Results[0].Text, nil
	default:
		return "", fmt.Errorf("unknown model backend %q", a.cfg.Backend)
	}
}

func (a *Advisor) buildPrompt(cfg npc.Config, state npc.StateSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You control a computer player in a tribal war strategy game.\n")
	fmt.Fprintf(&b, "Personality: %s. Difficulty: %s.\n", cfg.Personality, cfg.Difficulty)
	fmt.Fprintf(&b, "Current state: %d settlements, %d total resources, %d idle troops, %d nearby threats.\n",
		state.SettlementCount, state.TotalResources, state.IdleTroops, state.ThreatCount)
	b.WriteString("Choose exactly one action from: build, farm, train, attack, defend, trade, idle.\n")
	b.WriteString(`Respond with a single JSON object: {"action": "...", "parameters": {"troop_ratio": 0.5, "target": "nearest", "resource_focus": "economy"}, "reasoning": "..."}`)
	return b.String()
}

type modelResponse struct {
	Action     string `json:"action"`
	Parameters struct {
		TroopRatio    float64 `json:"troop_ratio"`
		Target        string  `json:"target"`
		ResourceFocus string  `json:"resource_focus"`
	} `json:"parameters"`
	Reasoning string `json:"reasoning"`
}

var validActions = map[npc.ActionType]bool{
	npc.ActionBuild: true, npc.ActionFarm: true, npc.ActionTrain: true,
	npc.ActionAttack: true, npc.ActionDefend: true, npc.ActionTrade: true,
	npc.ActionIdle: true,
}

// parseDecision extracts the first JSON object from the model text. Anything
// malformed degrades to idle with low confidence rather than erroring.
func (a *Advisor) parseDecision(text string) npc.Decision {
	idle := npc.Decision{Action: npc.ActionIdle, Confidence: 0.1, Source: npc.SourceModel}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return idle
	}

	var parsed modelResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return idle
	}

	action := npc.ActionType(strings.ToLower(strings.TrimSpace(parsed.Action)))
	if !validActions[action] {
		return idle
	}

	return npc.Decision{
		Action: action,
		Params: npc.ActionParams{
			TroopRatio:    clamp01(parsed.Parameters.TroopRatio),
			Target:        npc.TargetPreference(parsed.Parameters.Target),
			ResourceFocus: npc.ResourceFocus(parsed.Parameters.ResourceFocus),
		},
		Confidence: modelConfidence,
		Source:     npc.SourceModel,
		Reasoning:  strings.TrimSpace(parsed.Reasoning),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func promptHash(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(sum[:])
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
