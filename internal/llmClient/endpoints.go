package llmclient

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Endpoint names one regional deployment of the reasoning backend. Each region
// carries its own quota, so the failover layer treats endpoints as
// independent: exhausting one region's quota does not imply anything about
// the next.
type Endpoint struct {
	Region   string
	Provider string // "gemini" or "openai-compat"
	Model    string
	BaseURL  string // openai-compat only
	APIKey   string
	Priority int // lower tries first
	Timeout  int // per-attempt seconds; 0 means provider default
}

// DefaultEndpoints resolves the region catalog from the environment.
// OPTIMIND_REGIONS is a comma-separated priority list (e.g. "us,eu,ap");
// per-region overrides use OPTIMIND_<REGION>_* keys. With nothing configured,
// a single Gemini endpoint in region "primary" is returned.
func DefaultEndpoints() []Endpoint {
	regions := strings.TrimSpace(os.Getenv("OPTIMIND_REGIONS"))
	if regions == "" {
		return []Endpoint{{
			Region:   "primary",
			Provider: "gemini",
			Model:    envOr("OPTIMIND_MODEL", "gemini-2.5-flash"),
			APIKey:   os.Getenv("GEMINI_API_KEY"),
			Priority: 0,
		}}
	}
	var out []Endpoint
	for i, r := range strings.Split(regions, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		key := "OPTIMIND_" + strings.ToUpper(r)
		ep := Endpoint{
			Region:   r,
			Provider: envOr(key+"_PROVIDER", "gemini"),
			Model:    envOr(key+"_MODEL", envOr("OPTIMIND_MODEL", "gemini-2.5-flash")),
			BaseURL:  os.Getenv(key + "_BASE_URL"),
			APIKey:   firstNonEmpty(os.Getenv(key+"_API_KEY"), os.Getenv("GEMINI_API_KEY")),
			Priority: i,
		}
		out = append(out, ep)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Build constructs the concrete transport client for an endpoint.
func (e Endpoint) Build(ctx context.Context) (LLMClient, error) {
	switch strings.ToLower(strings.TrimSpace(e.Provider)) {
	case "", "gemini":
		return NewGeminiClient(ctx, e.APIKey, e.Model, e.Region)
	case "openai-compat", "openai":
		return NewRESTClient(e.APIKey, e.Model, e.BaseURL, e.Region)
	default:
		return nil, fmt.Errorf("endpoint %s: unknown provider %q", e.Region, e.Provider)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
