package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Session store backends.
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// LLM providers.
const (
	LLMGemini = "gemini"
	LLMOpenAI = "openai"
	LLMNone   = "none"
)

type DialogueConfig struct {
	ExtractorTimeout   time.Duration
	ToolTimeout        time.Duration
	PhraserTimeout     time.Duration
	SwitchThreshold    float64
	HistoryLimit       int
	MaxConcurrentTurns int64
	SessionStore       string
	SessionTTL         time.Duration
	LLMProvider        string
	Location           *time.Location
	BusinessStart      int
	BusinessEnd        int
	SlotMinutes        int
	SalonName          string
	SalonAddress       string
	OpeningHours       string
}

// LoadDialogueConfig reads the dialogue settings from the environment.
func LoadDialogueConfig() (*DialogueConfig, error) {
	var err error
	cfg := &DialogueConfig{
		SessionStore: strings.ToLower(envOr("SESSION_STORE", SessionStoreMemory)),
		LLMProvider:  strings.ToLower(envOr("LLM_PROVIDER", LLMGemini)),
		SalonName:    envOr("SALON_NAME", "Güzellik Salonu"),
		SalonAddress: envOr("SALON_ADDRESS", "İstanbul, Şişli"),
	}

	if cfg.ExtractorTimeout, err = envDuration("EXTRACTOR_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}
	if cfg.ToolTimeout, err = envDuration("TOOL_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.PhraserTimeout, err = envDuration("PHRASER_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.SessionTTL, err = envDuration("SESSION_TTL", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.SwitchThreshold, err = envFloat("FLOW_SWITCH_THRESHOLD", 0.85); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = envInt("HISTORY_LIMIT", 20); err != nil {
		return nil, err
	}
	turns, err := envInt("MAX_CONCURRENT_TURNS", 64)
	if err != nil {
		return nil, err
	}
	cfg.MaxConcurrentTurns = int64(turns)
	if cfg.BusinessStart, err = envInt("BUSINESS_HOURS_START", 8); err != nil {
		return nil, err
	}
	if cfg.BusinessEnd, err = envInt("BUSINESS_HOURS_END", 17); err != nil {
		return nil, err
	}
	if cfg.SlotMinutes, err = envInt("APPOINTMENT_SLOT_MINUTES", 15); err != nil {
		return nil, err
	}

	if cfg.Location, err = time.LoadLocation(envOr("TIMEZONE", "Europe/Istanbul")); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.OpeningHours = envOr("OPENING_HOURS",
		fmt.Sprintf("%02d:00 - %02d:00", cfg.BusinessStart, cfg.BusinessEnd))

	return cfg, cfg.validate()
}

func (c *DialogueConfig) validate() error {
	switch {
	case c.BusinessStart < 0 || c.BusinessEnd > 24 || c.BusinessStart >= c.BusinessEnd:
		return fmt.Errorf("invalid business hours %d-%d", c.BusinessStart, c.BusinessEnd)
	case c.SlotMinutes <= 0 || 60%c.SlotMinutes != 0:
		return fmt.Errorf("APPOINTMENT_SLOT_MINUTES must divide an hour, got %d", c.SlotMinutes)
	case c.SwitchThreshold < 0 || c.SwitchThreshold > 1:
		return fmt.Errorf("FLOW_SWITCH_THRESHOLD must be within [0,1], got %v", c.SwitchThreshold)
	case c.SessionStore != SessionStoreMemory && c.SessionStore != SessionStoreRedis:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	case c.LLMProvider != LLMGemini && c.LLMProvider != LLMOpenAI && c.LLMProvider != LLMNone:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
