package services

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
)

const systemPromptTemplate = `أنت جروك - مساعد ميزان الذكي 🤖

أنت مساعد ذكي متخصص في الإجابة عن أسئلة {{.UserName}} عن شركته وبياناته.

## دورك:
- الإجابة على جميع الأسئلة بدقة ووضوح
- استخدام البيانات من قاعدة المعرفة أدناه
- الإجابة باللغة العربية دائماً
- إعطاء أرقام دقيقة عندما تكون متوفرة
{{if .Knowledge}}
---

# قاعدة المعرفة الكاملة:

{{.Knowledge}}

---
{{end}}
## تعليمات إضافية:
1. إذا سأل سؤال غير موجود في قاعدة المعرفة، قل بصراحة "ليس لدي هذه المعلومة في البيانات المتاحة"
2. إذا طلب رقم محدد، أعطه الرقم من قاعدة المعرفة
3. استخدم التنسيق Markdown في الإجابات
`

// KnowledgeBase holds the static grounding document and the system prompt built from it.
type KnowledgeBase struct {
	Path         string
	Text         string
	SystemPrompt string
}

func (kb *KnowledgeBase) Loaded() bool {
	return kb != nil && kb.Text != ""
}

// LoadKnowledgeBase reads the knowledge document once. A missing or unreadable
// document yields an empty knowledge text rather than an error, so the
// service can start and report the condition on /health.
func LoadKnowledgeBase(path, userName string, log zerolog.Logger) (*KnowledgeBase, error) {
	kb := &KnowledgeBase{Path: path}

	if path != "" {
		text, err := readKnowledgeDocument(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Knowledge base not loaded")
		} else {
			kb.Text = text
			log.Info().Str("path", path).Int("bytes", len(text)).Msg("Knowledge base loaded")
		}
	}

	prompt, err := renderSystemPrompt(userName, kb.Text)
	if err != nil {
		return nil, err
	}
	kb.SystemPrompt = prompt
	return kb, nil
}

func renderSystemPrompt(userName, knowledge string) (string, error) {
	tmpl, err := template.New("system").Parse(systemPromptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse system prompt: %w", err)
	}
	var buf bytes.Buffer
	err = tmpl.Execute(&buf, struct {
		UserName  string
		Knowledge string
	}{UserName: userName, Knowledge: strings.TrimSpace(knowledge)})
	if err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}

func readKnowledgeDocument(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return extractTextFromPDF(path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read knowledge base: %w", err)
	}
	return string(content), nil
}

func extractTextFromPDF(pdfPath string) (string, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var content strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		content.WriteString(text)
		content.WriteString("\n\n")
	}

	if content.Len() == 0 {
		return "", fmt.Errorf("no text content extracted from PDF")
	}

	return content.String(), nil
}
