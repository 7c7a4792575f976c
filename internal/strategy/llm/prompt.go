package llm

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"polytrader/internal/logger"
	"polytrader/internal/model"

	"github.com/fsnotify/fsnotify"
)

const defaultSystemPrompt = `You are a prediction-market trader on Polymarket.
You analyse one market at a time and manage a paper portfolio.
Answer with exactly one JSON object and nothing else, in this shape:
{
  "action": "BUY" | "SELL" | "HOLD" | "PASS",
  "outcome": "<outcome name or empty>",
  "side": "YES" | "NO",
  "size": <dollar amount>,
  "confidence": <0..1>,
  "edge": <estimated edge percentage, or null>,
  "reasoning": "<2-3 sentences>"
}
Consider value (market price vs your own estimate), liquidity, portfolio
concentration, and position sizing (risk 5-10% of capital on good setups).`

// promptRegistry holds the system prompt, optionally overridden by a template
// file that is hot-reloaded when edited. Reloads take effect on the next
// strategy call; an in-flight cycle keeps the prompt it started with.
type promptRegistry struct {
	path string

	mu     sync.RWMutex
	system string

	watcher *fsnotify.Watcher
}

func newPromptRegistry(path string) (*promptRegistry, error) {
	r := &promptRegistry{path: strings.TrimSpace(path), system: defaultSystemPrompt}
	if r.path == "" {
		return r, nil
	}
	if err := r.reload(); err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("prompt watcher failed: %w", err)
	}
	// Watch the directory: editors typically replace the file on save.
	if err := watcher.Add(filepath.Dir(r.path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching prompt template failed: %w", err)
	}
	r.watcher = watcher
	go r.watch()
	return r, nil
}

func (r *promptRegistry) watch() {
	for {
		select {
		case evt, ok := <-r.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(evt.Name) != filepath.Clean(r.path) {
				continue
			}
			if evt.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := r.reload(); err != nil {
				logger.Errorf("prompt template reload failed: %v", err)
				continue
			}
			logger.Infof("prompt template reloaded from %s", r.path)
		case err, ok := <-r.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("prompt watcher error: %v", err)
		}
	}
}

func (r *promptRegistry) reload() error {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("reading prompt template failed: %w", err)
	}
	content := strings.TrimSpace(string(raw))
	if content == "" {
		return fmt.Errorf("prompt template %s is empty", r.path)
	}
	r.mu.Lock()
	r.system = content
	r.mu.Unlock()
	return nil
}

func (r *promptRegistry) System() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.system
}

func (r *promptRegistry) Close() error {
	if r.watcher == nil {
		return nil
	}
	return r.watcher.Close()
}

// buildUserPrompt renders the per-market analysis request: market data,
// portfolio state and the existing position, if any.
func buildUserPrompt(snap model.MarketSnapshot, portfolio model.PortfolioSummary, existing *model.Position) string {
	var b strings.Builder
	fmt.Fprintf(&b, "MARKET DATA:\n")
	fmt.Fprintf(&b, "- Match: %s\n", snap.Title)
	fmt.Fprintf(&b, "- Volume: $%.0f\n", snap.Volume)
	fmt.Fprintf(&b, "- Liquidity: $%.0f\n", snap.Liquidity)
	fmt.Fprintf(&b, "- Outcomes:\n")
	for _, name := range sortedOutcomes(snap) {
		quote := snap.Outcomes[name]
		fmt.Fprintf(&b, "  - %s: %.1fc (implied prob %.1f%%)\n",
			name, quote.BuyPrice*100, quote.BuyPrice*100)
	}

	fmt.Fprintf(&b, "\nPORTFOLIO STATE:\n")
	fmt.Fprintf(&b, "- Cash available: $%.2f\n", portfolio.Cash)
	fmt.Fprintf(&b, "- Open positions: %d\n", portfolio.OpenPositions)
	fmt.Fprintf(&b, "- Total value: $%.2f\n", portfolio.TotalValue)

	if existing != nil {
		currentValue := existing.CostBasis
		if quote, ok := snap.Quote(existing.Outcome); ok {
			currentValue = existing.CurrentValue(quote.BuyPrice)
		}
		fmt.Fprintf(&b, "\nEXISTING POSITION:\n")
		fmt.Fprintf(&b, "- Outcome: %s (%s)\n", existing.Outcome, existing.Side)
		fmt.Fprintf(&b, "- Entry price: %.1fc\n", existing.EntryPrice*100)
		fmt.Fprintf(&b, "- Shares: %.0f\n", existing.Shares)
		fmt.Fprintf(&b, "- Cost basis: $%.2f\n", existing.CostBasis)
		fmt.Fprintf(&b, "- Current value: $%.2f\n", currentValue)
	}

	fmt.Fprintf(&b, "\nAnalyse this market and decide: BUY, SELL, HOLD, or PASS.\n")
	return b.String()
}

func sortedOutcomes(snap model.MarketSnapshot) []string {
	names := make([]string, 0, len(snap.Outcomes))
	for name := range snap.Outcomes {
		names = append(names, name)
	}
	// Deterministic prompt for deterministic replays.
	sort.Strings(names)
	return names
}
