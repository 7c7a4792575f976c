package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"polytrader/internal/model"
	"polytrader/internal/pkg/jsonutil"

	"github.com/tidwall/gjson"
)

// parseDecision extracts, validates and maps the model's JSON answer onto a
// Decision. The outcome name is resolved against the snapshot so the decision
// carries a real token id and the market's canonical outcome label.
func parseDecision(raw string, snap model.MarketSnapshot) (model.Decision, error) {
	obj, ok := jsonutil.ExtractObject(raw)
	if !ok {
		return model.Decision{}, fmt.Errorf("no JSON object in model output")
	}
	var doc any
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return model.Decision{}, fmt.Errorf("decision JSON invalid: %w", err)
	}
	if err := validateDecisionJSON(doc); err != nil {
		return model.Decision{}, err
	}

	parsed := gjson.Parse(obj)
	d := model.Decision{
		Action:     model.ParseAction(parsed.Get("action").String()),
		Side:       model.ParseSide(parsed.Get("side").String()),
		Size:       parsed.Get("size").Float(),
		Confidence: parsed.Get("confidence").Float(),
		Reasoning:  strings.TrimSpace(parsed.Get("reasoning").String()),
	}
	if edge := parsed.Get("edge"); edge.Exists() && edge.Type == gjson.Number {
		v := edge.Float()
		d.Edge = &v
	}
	if d.Reasoning == "" {
		d.Reasoning = "no reasoning provided"
	}

	outcome := strings.TrimSpace(parsed.Get("outcome").String())
	if outcome != "" && !strings.EqualFold(outcome, "N/A") {
		name, tokenID, ok := resolveOutcome(outcome, snap)
		if ok {
			d.Outcome = name
			d.TokenID = tokenID
		}
	}
	if d.Action.IsTrade() && d.TokenID == "" {
		return model.Decision{}, fmt.Errorf("%s decision without a resolvable outcome (got %q)", d.Action, outcome)
	}
	return d, nil
}

// resolveOutcome matches a model-reported outcome against the snapshot via
// case-insensitive containment, returning the canonical name and token.
func resolveOutcome(outcome string, snap model.MarketSnapshot) (string, string, bool) {
	lower := strings.ToLower(outcome)
	for name, quote := range snap.Outcomes {
		if strings.Contains(lower, strings.ToLower(name)) || strings.Contains(strings.ToLower(name), lower) {
			return name, quote.TokenID, true
		}
	}
	return "", "", false
}
