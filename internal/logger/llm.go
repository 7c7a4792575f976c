package logger

import (
	"io"
	"log"
	"strings"
	"sync"
)

var (
	llmMu   sync.Mutex
	llmLog  *log.Logger
	llmDump bool
)

// SetLLMWriter directs raw LLM request/response dumps to w; nil disables them.
func SetLLMWriter(w io.Writer) {
	llmMu.Lock()
	defer llmMu.Unlock()
	if w == nil {
		llmLog = nil
		return
	}
	llmLog = log.New(w, "", log.LstdFlags)
}

// EnableLLMPayloadDump toggles inclusion of the full request payload.
func EnableLLMPayloadDump(enabled bool) {
	llmMu.Lock()
	llmDump = enabled
	llmMu.Unlock()
}

type llmSection struct {
	Title string
	Body  string
}

func logLLM(kind, market string, sections []llmSection) {
	llmMu.Lock()
	l := llmLog
	llmMu.Unlock()
	if l == nil {
		return
	}
	var b strings.Builder
	b.WriteString("[LLM][" + kind + "]")
	if market != "" {
		b.WriteString("[" + market + "]")
	}
	b.WriteString("\n")
	for _, sec := range sections {
		title := strings.TrimSpace(sec.Title)
		if title == "" {
			title = "CONTENT"
		}
		b.WriteString("--- " + title + " ---\n")
		b.WriteString(sec.Body)
		if !strings.HasSuffix(sec.Body, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString("=====\n")
	l.Print(b.String())
}

// LogLLMRequest dumps the prompts sent for one market analysis.
func LogLLMRequest(market, systemPrompt, userPrompt, payload string) {
	sections := []llmSection{
		{Title: "SYSTEM", Body: systemPrompt},
		{Title: "USER", Body: userPrompt},
	}
	llmMu.Lock()
	dump := llmDump
	llmMu.Unlock()
	if dump && strings.TrimSpace(payload) != "" {
		sections = append(sections, llmSection{Title: "PAYLOAD", Body: payload})
	}
	logLLM("request", market, sections)
}

// LogLLMResponse dumps the raw model output for one market analysis.
func LogLLMResponse(market, raw string) {
	logLLM("response", market, []llmSection{{Title: "RAW", Body: raw}})
}
